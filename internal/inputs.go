package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ExpandInputs replaces every directory argument with the chat exports it
// directly contains, sorted by name. File arguments pass through unchanged,
// even when their extension is unknown, so sniffing can still classify them.
// Files written by an earlier conversion (*.converted.*) are skipped.
func ExpandInputs(args []string) ([]string, error) {
	inputs := make([]string, 0, len(args))
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, &StorageError{Path: arg, Op: "list", Err: err}
		}
		var found []string
		for _, entry := range entries {
			if entry.IsDir() || !IsExportFile(entry.Name()) {
				continue
			}
			found = append(found, filepath.Join(arg, entry.Name()))
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no chat exports found in %s", arg)
		}
		sort.Strings(found)
		LogDebug("expanded %s to %d file(s)", arg, len(found))
		inputs = append(inputs, found...)
	}
	return inputs, nil
}

// IsExportFile reports whether name has an extension a parser reads and was
// not produced by a previous conversion
func IsExportFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := extensionFormats[ext]; !ok {
		return false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return !strings.HasSuffix(strings.ToLower(stem), ".converted")
}
