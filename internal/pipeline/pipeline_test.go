package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/iksnae/chat-convert/internal"
	"github.com/iksnae/chat-convert/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testClock = internal.FixedClock{T: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}

func newTestPipeline(fs internal.FileSystem, opts ...Option) *Pipeline {
	return New(append([]Option{WithFileSystem(fs), WithClock(testClock)}, opts...)...)
}

func TestConvert_Dialects(t *testing.T) {
	fs := testutil.NewMemFS(map[string]string{
		"canonical.json":  testutil.CanonicalJSON,
		"canonical.yaml":  testutil.CanonicalYAML,
		"native.json":     testutil.NativeExportJSON,
		"official.json":   testutil.ChatGPTOfficialJSON,
		"claude.json":     testutil.ClaudePlatformJSON,
		"extension.json":  testutil.ClaudeExporterJSON,
		"exporter.json":   testutil.ChatGPTExporterJSON,
		"generic.json":    testutil.GenericJSON,
		"exporter.md":     testutil.ExporterMarkdown,
		"headings.md":     testutil.HeadingsMarkdown,
		"bold.md":         testutil.BoldMarkdown,
		"class.html":      testutil.ClassHTML,
		"saved.html":      testutil.TextHTML,
		"noextension":     testutil.GenericJSON,
		"headings.txt":    testutil.HeadingsMarkdown,
		"canonical.jsonx": testutil.CanonicalJSON,
	})
	p := newTestPipeline(fs)

	tests := []struct {
		path       string
		wantParser string
		wantRoles  []internal.Role
	}{
		{"canonical.json", "canonical-v2", []internal.Role{"user", "assistant"}},
		{"canonical.yaml", "canonical-v2", []internal.Role{"user"}},
		{"native.json", "native-export", []internal.Role{"user", "assistant", "user"}},
		{"official.json", "chatgpt-official", []internal.Role{"user", "assistant", "user"}},
		{"claude.json", "claude-platform", []internal.Role{"user", "assistant"}},
		{"extension.json", "claude-exporter", []internal.Role{"user", "assistant"}},
		{"exporter.json", "chatgpt-exporter", []internal.Role{"user", "assistant"}},
		{"generic.json", "generic-json", []internal.Role{"user", "assistant"}},
		{"exporter.md", "markdown-prompt-response", []internal.Role{"user", "assistant"}},
		{"headings.md", "markdown-headings", []internal.Role{"user", "assistant"}},
		{"bold.md", "markdown-bold", []internal.Role{"user", "assistant"}},
		{"class.html", "html-class", []internal.Role{"user", "assistant"}},
		{"saved.html", "html-text", []internal.Role{"user", "assistant"}},
		{"noextension", "generic-json", []internal.Role{"user", "assistant"}},
		{"headings.txt", "markdown-headings", []internal.Role{"user", "assistant"}},
		{"canonical.jsonx", "canonical-v2", []internal.Role{"user", "assistant"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res, err := p.Convert(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantParser, res.Parser)

			var roles []internal.Role
			for _, msg := range res.Doc.Messages {
				roles = append(roles, msg.Role)
			}
			assert.Equal(t, tt.wantRoles, roles)
			assert.Equal(t, internal.SchemaVersion, res.Doc.SchemaVersion)
		})
	}
}

func TestConvert_Errors(t *testing.T) {
	fs := testutil.NewMemFS(map[string]string{
		"blank.txt":   "   \n\n",
		"list.json":   `[1, 2, 3]`,
		"prose.md":    "# Notes\n\nJust some notes.",
		"two.json":    `[{"mapping": {}}, {"mapping": {}}]`,
		"broken.json": `{"messages": [`,
	})
	p := newTestPipeline(fs)

	t.Run("missing file", func(t *testing.T) {
		_, err := p.Convert("missing.json")
		require.Error(t, err)
	})

	t.Run("undetectable format", func(t *testing.T) {
		_, err := p.Convert("blank.txt")
		var target *internal.FormatUndetectableError
		assert.ErrorAs(t, err, &target)
	})

	t.Run("no parser", func(t *testing.T) {
		for _, path := range []string{"list.json", "prose.md", "broken.json"} {
			_, err := p.Convert(path)
			var target *internal.NoParserAvailableError
			assert.ErrorAs(t, err, &target, path)
		}
	})

	t.Run("malformed source", func(t *testing.T) {
		_, err := p.Convert("two.json")
		var target *internal.MalformedSourceError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "chatgpt-official", target.Parser)
		assert.Equal(t, "two.json", target.Path)
	})
}

func TestConvert_ValidationWarningsAreNotFatal(t *testing.T) {
	// statistics disagree with the messages, which the validator reports
	stale := `{"schema_version":"2.0","metadata":{"chat_id":"x","title":"t","platform":"p","exporter":"e","tags":[],
"statistics":{"message_count":9,"word_count":0,"token_count":0,"duration_seconds":0}},
"messages":[{"message_id":"msg_1","role":"user","content":"hi"}]}`
	p := newTestPipeline(testutil.NewMemFS(map[string]string{"stale.json": stale}))

	res, err := p.Convert("stale.json")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Warnings)
	assert.Equal(t, 9, res.Doc.Metadata.Statistics.MessageCount, "passthrough keeps the document unchanged")

	p = newTestPipeline(testutil.NewMemFS(map[string]string{"stale.json": stale}), WithValidator(nil))
	res, err = p.Convert("stale.json")
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
}

func TestConvert_Chunking(t *testing.T) {
	chunker, err := internal.NewChunker(1000, 0.8, internal.StrategyMessageBased)
	require.NoError(t, err)

	fs := testutil.NewMemFS(map[string]string{
		"generic.json": testutil.GenericJSON,
		"empty.json":   `{"messages": []}`,
	})
	p := newTestPipeline(fs, WithChunker(chunker))

	res, err := p.Convert("generic.json")
	require.NoError(t, err)
	require.NotNil(t, res.Doc.Metadata.Chunking)
	assert.Equal(t, 1, res.Doc.Metadata.Chunking.TotalChunks)
	assert.Equal(t, [2]int{0, 1}, res.Doc.Metadata.Chunking.ChunkMetadata[0].MessageRange)

	_, err = p.Convert("empty.json")
	var target *internal.ChunkerConfigError
	assert.ErrorAs(t, err, &target)
}

func TestConvert_Cache(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := testutil.WriteFile(t, dir, "generic.json", testutil.GenericJSON)
	cache := internal.NewCacheManager(filepath.Join(dir, "cache"), testClock)

	p := New(WithClock(testClock), WithCache(cache))
	first, err := p.Convert(path)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := p.Convert(path)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Doc, second.Doc)

	// a chunked conversion is cached separately
	chunker, err := internal.NewChunker(1000, 0.8, "")
	require.NoError(t, err)
	third, err := New(WithClock(testClock), WithCache(cache), WithChunker(chunker)).Convert(path)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.NotNil(t, third.Doc.Metadata.Chunking)
}

func TestConvertBatch(t *testing.T) {
	fs := testutil.NewMemFS(map[string]string{
		"a.json":  testutil.GenericJSON,
		"b.md":    testutil.HeadingsMarkdown,
		"c.txt":   "",
		"d.json":  testutil.GenericJSON,
		"e.html":  testutil.ClassHTML,
		"f.json":  `{"messages": "nope"}`,
		"g.yaml":  testutil.CanonicalYAML,
		"h.jsonl": "not json",
	})
	paths := []string{"a.json", "b.md", "c.txt", "d.json", "e.html", "f.json", "g.yaml", "h.jsonl", "missing.md"}

	var mu sync.Mutex
	var done []string
	p := newTestPipeline(fs, WithWorkers(3))
	batch := p.ConvertBatch(context.Background(), paths, func(path string, err error) {
		mu.Lock()
		defer mu.Unlock()
		done = append(done, path)
	})

	var ok []string
	for _, r := range batch.Successful {
		ok = append(ok, r.Path)
	}
	assert.Equal(t, []string{"a.json", "b.md", "d.json", "e.html", "g.yaml"}, ok, "successes keep input order")

	var failed []string
	for _, f := range batch.Failed {
		failed = append(failed, f.Path)
		assert.Error(t, f.Error)
	}
	assert.Equal(t, []string{"c.txt", "f.json", "h.jsonl", "missing.md"}, failed)
	assert.Empty(t, batch.Duplicates)

	sort.Strings(done)
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	assert.Equal(t, sorted, done, "onDone runs once per file")
}

func TestConvertBatch_Dedupe(t *testing.T) {
	fs := testutil.NewMemFS(map[string]string{
		"a.json": testutil.GenericJSON,
		"b.json": testutil.GenericJSON,
		"c.md":   testutil.HeadingsMarkdown,
	})
	p := newTestPipeline(fs, WithDedupe(true), WithWorkers(2))
	batch := p.ConvertBatch(context.Background(), []string{"a.json", "b.json", "c.md"}, nil)

	require.Len(t, batch.Successful, 2)
	assert.Equal(t, "a.json", batch.Successful[0].Path)
	assert.Equal(t, "c.md", batch.Successful[1].Path)
	assert.Equal(t, []string{"b.json"}, batch.Duplicates)
}

func TestConvertBatch_Cancelled(t *testing.T) {
	fs := testutil.NewMemFS(map[string]string{"a.json": testutil.GenericJSON})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := newTestPipeline(fs).ConvertBatch(ctx, []string{"a.json"}, nil)
	require.Len(t, batch.Failed, 1)
	assert.True(t, errors.Is(batch.Failed[0].Error, context.Canceled))
}

func TestNew_Defaults(t *testing.T) {
	p := New(WithWorkers(0))
	assert.Equal(t, 1, p.workers)
	assert.NotNil(t, p.registry)
	assert.NotNil(t, p.validator)
	assert.Equal(t, "plain", p.cacheVariant())
}
