package extract

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/config"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/llm"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/snippet"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type scriptedCaller struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
}

func (s *scriptedCaller) Complete(_ context.Context, messages []llm.Message) (llm.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := len(s.prompts)
	s.prompts = append(s.prompts, messages[len(messages)-1].Content)
	if idx < len(s.errs) && s.errs[idx] != nil {
		return llm.Result{}, s.errs[idx]
	}
	if idx < len(s.responses) {
		return llm.Result{Content: s.responses[idx], Strategy: llm.StrategyJSONMode}, nil
	}
	return llm.Result{}, errors.New("no scripted response")
}

func testTables(t *testing.T) config.Tables {
	t.Helper()
	tables, err := config.DefaultTables()
	require.NoError(t, err)
	return tables
}

func facultySnippet() snippet.Snippet {
	return snippet.Snippet{
		Type: blocks.TypeFaculty,
		Lines: []snippet.Line{
			{Page: 3, Text: "Total Faculty: 120"},
			{Page: 3, Text: "Faculty with PhD: 48"},
		},
	}
}

func TestExtractBlockParsesModelResponse(t *testing.T) {
	caller := &scriptedCaller{responses: []string{
		"```json\n{\"block_type\":\"faculty_information\",\"classification_confidence\":0.92," +
			"\"extraction_confidence\":1.4,\"data\":{\"Total Faculty\":\"120\",\"phd_faculty\":48}," +
			"\"evidence\":{\"page\":3,\"snippet\":\"Total Faculty: 120\"}}\n```",
	}}
	ex := NewExtractor(caller, testTables(t), Config{})

	b := ex.ExtractBlock(context.Background(), "batch-1", "report.pdf", facultySnippet())

	assert.Equal(t, blocks.TypeFaculty, b.Type)
	assert.Equal(t, "batch-1", b.BatchID)
	assert.Equal(t, 0.92, b.ClassificationConfidence)
	assert.Equal(t, 1.0, b.ExtractionConfidence)
	assert.Equal(t, "120", b.Data["total_faculty"])
	assert.Equal(t, float64(48), b.Data["phd_faculty"])
	assert.Equal(t, 3, b.Evidence.Page)
	assert.Equal(t, "Total Faculty: 120", b.Evidence.Snippet)
	assert.Equal(t, 1, b.Attempts)
	assert.False(t, b.RetriesExhausted)
	assert.False(t, b.Quality.IsInvalid)
	assert.NotEmpty(t, b.ID)
}

func TestExtractBlockRetriesUnparsableWithFeedback(t *testing.T) {
	caller := &scriptedCaller{responses: []string{
		"sorry, here is the data",
		`{"block_type":"faculty_information","classification_confidence":0.8,"extraction_confidence":0.7,"data":{"faculty_count":120}}`,
	}}
	ex := NewExtractor(caller, testTables(t), Config{RetryLimit: 3})

	b := ex.ExtractBlock(context.Background(), "batch-1", "report.pdf", facultySnippet())

	require.Len(t, caller.prompts, 2)
	assert.NotContains(t, caller.prompts[0], "not valid JSON")
	assert.Contains(t, caller.prompts[1], "not valid JSON")
	assert.Equal(t, 2, b.Attempts)
	assert.False(t, b.Quality.IsInvalid)
	assert.Equal(t, 3, b.Evidence.Page, "evidence page falls back to the snippet page")
}

func TestExtractBlockExhaustedRetriesYieldInvalidBlock(t *testing.T) {
	boom := errors.New("upstream unavailable")
	caller := &scriptedCaller{errs: []error{boom, boom}}
	ex := NewExtractor(caller, testTables(t), Config{RetryLimit: 2})

	b := ex.ExtractBlock(context.Background(), "batch-1", "report.pdf", facultySnippet())

	assert.Equal(t, 2, b.Attempts)
	assert.True(t, b.RetriesExhausted)
	assert.True(t, b.Quality.IsInvalid)
	assert.Contains(t, b.Quality.InvalidReason, callFailurePrefix)
	assert.Contains(t, b.Quality.InvalidReason, "upstream unavailable")
	assert.Equal(t, blocks.TypeFaculty, b.Type)
	assert.Equal(t, 3, b.Evidence.Page)
}

func TestExtractBlockIgnoresUnknownModelBlockType(t *testing.T) {
	caller := &scriptedCaller{responses: []string{`{"block_type":"hostel_menu","data":{"faculty_count":10}}`}}
	ex := NewExtractor(caller, testTables(t), Config{})

	b := ex.ExtractBlock(context.Background(), "b", "d", facultySnippet())

	assert.Equal(t, blocks.TypeFaculty, b.Type)
	assert.Zero(t, b.ClassificationConfidence)
	assert.Zero(t, b.ExtractionConfidence)
}

func TestExtractDocumentKeepsSnippetOrder(t *testing.T) {
	caller := &scriptedCaller{responses: []string{
		`{"block_type":"faculty_information","classification_confidence":0.9,"extraction_confidence":0.9,"data":{"n":1}}`,
		`{"block_type":"faculty_information","classification_confidence":0.9,"extraction_confidence":0.9,"data":{"n":1}}`,
	}}
	ex := NewExtractor(caller, testTables(t), Config{Concurrency: 2})
	snips := []snippet.Snippet{
		facultySnippet(),
		{Type: blocks.TypeResearch},
		{Type: blocks.TypePlacement, Lines: []snippet.Line{{Page: 9, Text: "Placement rate 82%"}}},
	}

	out, err := ex.ExtractDocument(context.Background(), "batch-1", "report.pdf", snips)
	require.NoError(t, err)
	require.Len(t, out, 2, "empty snippets are skipped")
	assert.Equal(t, 3, out[0].Evidence.Page)
	assert.Equal(t, 9, out[1].Evidence.Page)
}

func TestExtractDocumentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ex := NewExtractor(&scriptedCaller{}, testTables(t), Config{})

	_, err := ex.ExtractDocument(ctx, "batch-1", "report.pdf", []snippet.Snippet{facultySnippet()})
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuildMessagesListsPagesAndFeedback(t *testing.T) {
	tables := testTables(t)
	spec, ok := tables.Block(blocks.TypeFaculty)
	require.True(t, ok)

	msgs := buildMessages(spec, tables.Blocks, facultySnippet(), "retry please")
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	user := msgs[1].Content
	assert.Contains(t, user, "[p3] Total Faculty: 120")
	assert.True(t, strings.HasSuffix(user, "retry please"))
	for _, bt := range blocks.AllTypes {
		assert.Contains(t, user, string(bt))
	}
}

func TestTruncateRespectsRunes(t *testing.T) {
	assert.Equal(t, "₹₹", truncate("₹₹₹", 2))
	assert.Equal(t, "abc", truncate("abc", 5))
}
