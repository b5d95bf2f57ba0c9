// Command worksentryctl is a direct, non-networked front end onto
// internal/core: it opens the same on-disk state worksentryd uses and
// dispatches a single operation per invocation, reading its JSON
// payload from -input or stdin.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"worksentry/internal/config"
	"worksentry/internal/core"
)

func main() {
	var (
		cmdName = flag.String("cmd", "", "operation: search | add_folder | remove_folder | get_folders | "+
			"reindex | get_index_stats | get_browser_status | set_bookmarks_enabled | set_history_enabled | "+
			"get_config | save_config | find_related")
		dataDir = flag.String("data", "", "data directory (defaults to the OS user-config directory)")
		input   = flag.String("input", "", "JSON input payload (defaults to stdin)")
	)
	flag.Parse()

	if *cmdName == "" {
		log.Fatalf("error: -cmd is required")
	}

	dir := *dataDir
	if dir == "" {
		var err error
		dir, err = config.UserDir()
		if err != nil {
			log.Fatalf("failed to resolve data directory: %v", err)
		}
	}

	svc, err := core.New(dir)
	if err != nil {
		log.Fatalf("failed to open worksentry: %v", err)
	}
	defer svc.Close()

	raw := readInput(*input)

	result, err := dispatch(*cmdName, svc, raw)
	if err != nil {
		log.Fatalf("%s failed: %v", *cmdName, err)
	}
	if err := json.NewEncoder(os.Stdout).Encode(result); err != nil {
		log.Fatalf("failed to encode result: %v", err)
	}
}

func readInput(input string) []byte {
	if input != "" {
		return []byte(input)
	}
	stat, _ := os.Stdin.Stat()
	if stat == nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return nil
	}
	var raw json.RawMessage
	_ = json.NewDecoder(os.Stdin).Decode(&raw)
	return raw
}

func dispatch(cmd string, svc *core.Service, raw []byte) (any, error) {
	switch cmd {
	case "search":
		var req struct {
			Query  string `json:"query"`
			Prefix bool   `json:"prefix"`
			Fuzzy  bool   `json:"fuzzy"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		return svc.Search(req.Query, req.Prefix, req.Fuzzy)

	case "add_folder":
		var req struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		if err := svc.AddFolder(req.Path); err != nil {
			return nil, err
		}
		return svc.GetFolders(), nil

	case "remove_folder":
		var req struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		if err := svc.RemoveFolder(req.Path); err != nil {
			return nil, err
		}
		return svc.GetFolders(), nil

	case "get_folders":
		return svc.GetFolders(), nil

	case "reindex":
		var req struct {
			Path string `json:"path,omitempty"`
		}
		_ = json.Unmarshal(raw, &req)
		return svc.Reindex(context.Background(), req.Path)

	case "get_index_stats":
		return svc.GetIndexStats()

	case "get_browser_status":
		return svc.GetBrowserStatus(), nil

	case "set_bookmarks_enabled":
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		if err := svc.SetBookmarksEnabled(req.Enabled); err != nil {
			return nil, err
		}
		return svc.GetConfig(), nil

	case "set_history_enabled":
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		if err := svc.SetHistoryEnabled(req.Enabled); err != nil {
			return nil, err
		}
		return svc.GetConfig(), nil

	case "get_config":
		return svc.GetConfig(), nil

	case "save_config":
		var cfg config.Config
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		if err := svc.SaveConfig(cfg); err != nil {
			return nil, err
		}
		return svc.GetConfig(), nil

	case "find_related":
		var req struct {
			Path  string `json:"path"`
			Limit int    `json:"limit"`
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		if req.Limit <= 0 {
			req.Limit = 10
		}
		return svc.FindRelated(req.Path, req.Limit)

	default:
		return nil, fmt.Errorf("unknown command: %s", cmd)
	}
}
