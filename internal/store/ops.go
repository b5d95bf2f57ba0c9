package store

import (
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"worksentry/internal/record"
	"worksentry/internal/tokenizer"
)

// setAdd inserts docID as a key in the nested bucket named by member,
// creating that nested bucket under parent if needed. Nested buckets are
// used as sets: postings, by_type, and by_ext all follow this shape.
func setAdd(tx *bolt.Tx, parentName []byte, member string, docID uint64) error {
	parent := tx.Bucket(parentName)
	sub, err := parent.CreateBucketIfNotExists([]byte(member))
	if err != nil {
		return err
	}
	return sub.Put(docKey(docID), []byte{})
}

// setRemove deletes docID from the nested bucket named by member, and
// removes the now-empty nested bucket entirely so that posting lists
// don't accumulate empty shells over the life of the index.
func setRemove(tx *bolt.Tx, parentName []byte, member string, docID uint64) error {
	parent := tx.Bucket(parentName)
	sub := parent.Bucket([]byte(member))
	if sub == nil {
		return nil
	}
	if err := sub.Delete(docKey(docID)); err != nil {
		return err
	}
	if sub.Stats().KeyN == 0 {
		return parent.DeleteBucket([]byte(member))
	}
	return nil
}

// setMembers returns every docID stored in the nested bucket named by
// member, or nil if that bucket doesn't exist.
func setMembers(tx *bolt.Tx, parentName []byte, member string) []uint64 {
	parent := tx.Bucket(parentName)
	sub := parent.Bucket([]byte(member))
	if sub == nil {
		return nil
	}
	ids := make([]uint64, 0, sub.Stats().KeyN)
	_ = sub.ForEach(func(k, _ []byte) error {
		ids = append(ids, decodeDocKey(k))
		return nil
	})
	return ids
}

func putJSON(b *bolt.Bucket, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func getJSON(b *bolt.Bucket, key []byte, v interface{}) (bool, error) {
	data := b.Get(key)
	if data == nil {
		return false, nil
	}
	return true, json.Unmarshal(data, v)
}

// insertOp creates a fresh document from doc, tokenizing its name and
// content into postings and registering it under paths, by_type, and
// by_ext. It assumes any prior document at doc.Path has already been
// removed by removeByPathOp in the same transaction.
func insertOp(doc record.Doc) func(*bolt.Tx) error {
	return func(tx *bolt.Tx) error {
		id, err := nextDocID(tx)
		if err != nil {
			return err
		}

		documents := tx.Bucket(bucketDocuments)
		paths := tx.Bucket(bucketPaths)
		docTermsName := tx.Bucket(bucketDocTermsName)
		docTermsContent := tx.Bucket(bucketDocTermsContent)

		if err := putJSON(documents, docKey(id), doc.Record); err != nil {
			return err
		}
		if err := paths.Put([]byte(doc.Path), docKey(id)); err != nil {
			return err
		}

		nameTerms := uniqueTerms(tokenizer.Tokenize(doc.Name))
		for _, t := range nameTerms {
			if err := setAdd(tx, bucketPostingsName, t, id); err != nil {
				return err
			}
		}
		if err := putJSON(docTermsName, docKey(id), nameTerms); err != nil {
			return err
		}

		if doc.Content != "" {
			contentTerms := uniqueTerms(tokenizer.Tokenize(doc.Content))
			for _, t := range contentTerms {
				if err := setAdd(tx, bucketPostingsContent, t, id); err != nil {
					return err
				}
			}
			if err := putJSON(docTermsContent, docKey(id), contentTerms); err != nil {
				return err
			}
		}

		if doc.RecordType != "" {
			if err := setAdd(tx, bucketByType, string(doc.RecordType), id); err != nil {
				return err
			}
		}
		if doc.Extension != "" {
			if err := setAdd(tx, bucketByExt, doc.Extension, id); err != nil {
				return err
			}
		}
		return nil
	}
}

// removeByPathOp fully removes the document currently stored at path, if
// any: its record, its path mapping, and its membership in every
// postings/type/extension set it was added to.
func removeByPathOp(path string) func(*bolt.Tx) error {
	return func(tx *bolt.Tx) error {
		paths := tx.Bucket(bucketPaths)
		idBytes := paths.Get([]byte(path))
		if idBytes == nil {
			return nil
		}
		id := decodeDocKey(idBytes)
		return removeDocOp(id, path)(tx)
	}
}

// removeDocOp removes docID's record and every set membership derived
// from it. path must be the path currently mapped to docID.
func removeDocOp(id uint64, path string) func(*bolt.Tx) error {
	return func(tx *bolt.Tx) error {
		documents := tx.Bucket(bucketDocuments)
		paths := tx.Bucket(bucketPaths)
		docTermsName := tx.Bucket(bucketDocTermsName)
		docTermsContent := tx.Bucket(bucketDocTermsContent)

		var rec record.Record
		found, err := getJSON(documents, docKey(id), &rec)
		if err != nil {
			return err
		}

		var nameTerms []string
		if _, err := getJSON(docTermsName, docKey(id), &nameTerms); err != nil {
			return err
		}
		for _, t := range nameTerms {
			if err := setRemove(tx, bucketPostingsName, t, id); err != nil {
				return err
			}
		}

		var contentTerms []string
		if _, err := getJSON(docTermsContent, docKey(id), &contentTerms); err != nil {
			return err
		}
		for _, t := range contentTerms {
			if err := setRemove(tx, bucketPostingsContent, t, id); err != nil {
				return err
			}
		}

		if found {
			if rec.RecordType != "" {
				if err := setRemove(tx, bucketByType, string(rec.RecordType), id); err != nil {
					return err
				}
			}
			if rec.Extension != "" {
				if err := setRemove(tx, bucketByExt, rec.Extension, id); err != nil {
					return err
				}
			}
		}

		_ = documents.Delete(docKey(id))
		_ = paths.Delete([]byte(path))
		_ = docTermsName.Delete(docKey(id))
		_ = docTermsContent.Delete(docKey(id))
		return nil
	}
}

func uniqueTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
