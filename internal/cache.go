package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// CacheVersion is bumped whenever cached documents change shape
const CacheVersion = "2.0"

// CacheManager caches converted documents keyed by source path, modification
// time and size. It is safe for concurrent use by batch workers.
type CacheManager struct {
	cacheDir string
	clock    Clock
	mu       sync.Mutex
}

// CacheMetadata stores metadata about the cache
type CacheMetadata struct {
	CacheVersion string    `yaml:"cache_version"`
	CreatedAt    time.Time `yaml:"created_at"`
	UpdatedAt    time.Time `yaml:"updated_at"`
}

// CacheIndexEntry represents a cached document in the index
type CacheIndexEntry struct {
	Key           string    `yaml:"key"`
	SourcePath    string    `yaml:"source_path"`
	SourceModTime time.Time `yaml:"source_mod_time"`
	SourceSize    int64     `yaml:"source_size"`
	Variant       string    `yaml:"variant,omitempty"`
	ChatID        string    `yaml:"chat_id"`
	Title         string    `yaml:"title,omitempty"`
	MessageCount  int       `yaml:"message_count"`
}

// CacheIndex represents the YAML index of all cached documents
type CacheIndex struct {
	Entries  []CacheIndexEntry `yaml:"entries"`
	Metadata CacheMetadata     `yaml:"metadata"`
}

// NewCacheManager creates a new cache manager
func NewCacheManager(cacheDir string, clock Clock) *CacheManager {
	if clock == nil {
		clock = SystemClock{}
	}
	return &CacheManager{
		cacheDir: cacheDir,
		clock:    clock,
	}
}

// EnsureCacheDir ensures the cache directory exists
func (cm *CacheManager) EnsureCacheDir() error {
	if err := os.MkdirAll(cm.cacheDir, 0755); err != nil {
		return &StorageError{Path: cm.cacheDir, Op: "write", Err: err}
	}
	return nil
}

// GetCacheDir returns the cache directory path
func (cm *CacheManager) GetCacheDir() string {
	return cm.cacheDir
}

// GetIndexPath returns the path to the cache index YAML file
func (cm *CacheManager) GetIndexPath() string {
	return filepath.Join(cm.cacheDir, "index.yaml")
}

// GetDocPath returns the path to a cached document
func (cm *CacheManager) GetDocPath(key string) string {
	return filepath.Join(cm.cacheDir, fmt.Sprintf("doc_%s.json", key))
}

// CacheKey identifies one conversion of a source file. Variant distinguishes
// conversions of the same file with different settings (e.g. chunking).
func CacheKey(sourcePath string, info os.FileInfo, variant string) string {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		abs = sourcePath
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00%s", abs, info.ModTime().UnixNano(), info.Size(), variant)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Lookup returns the cached document for sourcePath when the source is
// unchanged since it was stored
func (cm *CacheManager) Lookup(sourcePath, variant string) (*CanonicalDoc, bool) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, false
	}
	key := CacheKey(sourcePath, info, variant)

	cm.mu.Lock()
	defer cm.mu.Unlock()

	data, err := os.ReadFile(cm.GetDocPath(key))
	if err != nil {
		return nil, false
	}
	var doc CanonicalDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		LogDebug("discarding unreadable cache entry %s: %v", key, err)
		return nil, false
	}
	LogDebug("cache hit for %s", sourcePath)
	return &doc, true
}

// Store saves doc as the conversion of sourcePath and updates the index
func (cm *CacheManager) Store(sourcePath, variant string, doc *CanonicalDoc) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return &StorageError{Path: sourcePath, Op: "read", Err: err}
	}
	key := CacheKey(sourcePath, info, variant)

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if err := cm.EnsureCacheDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if err := os.WriteFile(cm.GetDocPath(key), data, 0644); err != nil {
		return &StorageError{Path: cm.GetDocPath(key), Op: "write", Err: err}
	}

	index := cm.loadOrCreateIndex()
	entry := CacheIndexEntry{
		Key:           key,
		SourcePath:    sourcePath,
		SourceModTime: info.ModTime(),
		SourceSize:    info.Size(),
		Variant:       variant,
		ChatID:        doc.Metadata.ChatID,
		Title:         doc.Metadata.Title,
		MessageCount:  len(doc.Messages),
	}

	// Replace entries for the same source and variant, the old key is stale
	kept := index.Entries[:0]
	for _, e := range index.Entries {
		if e.SourcePath == sourcePath && e.Variant == variant {
			if e.Key != key {
				_ = os.Remove(cm.GetDocPath(e.Key))
			}
			continue
		}
		kept = append(kept, e)
	}
	index.Entries = append(kept, entry)
	index.Metadata.UpdatedAt = cm.clock.Now()

	return cm.saveIndex(index)
}

func (cm *CacheManager) loadOrCreateIndex() *CacheIndex {
	index, err := cm.loadIndex()
	if err == nil && index.Metadata.CacheVersion == CacheVersion {
		return index
	}
	now := cm.clock.Now()
	return &CacheIndex{
		Entries: make([]CacheIndexEntry, 0),
		Metadata: CacheMetadata{
			CacheVersion: CacheVersion,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
}

// LoadIndex loads the cache index
func (cm *CacheManager) LoadIndex() (*CacheIndex, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.loadIndex()
}

func (cm *CacheManager) loadIndex() (*CacheIndex, error) {
	data, err := os.ReadFile(cm.GetIndexPath())
	if err != nil {
		return nil, err
	}

	var index CacheIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}
	return &index, nil
}

func (cm *CacheManager) saveIndex(index *CacheIndex) error {
	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := os.WriteFile(cm.GetIndexPath(), data, 0644); err != nil {
		return &StorageError{Path: cm.GetIndexPath(), Op: "write", Err: err}
	}
	return nil
}

// ClearCache removes every cached document and the index
func (cm *CacheManager) ClearCache() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if index, err := cm.loadIndex(); err == nil {
		for _, entry := range index.Entries {
			_ = os.Remove(cm.GetDocPath(entry.Key))
		}
	}

	if err := os.Remove(cm.GetIndexPath()); err != nil && !os.IsNotExist(err) {
		return &StorageError{Path: cm.GetIndexPath(), Op: "write", Err: err}
	}
	return nil
}
