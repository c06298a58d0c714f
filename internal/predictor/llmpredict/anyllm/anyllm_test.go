package anyllm

import (
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/glyphmatch/enrich/internal/predictor/llmpredict"
)

func TestConvertMessagesRoles(t *testing.T) {
	in := []llmpredict.ChatMessage{
		{Role: "system", Content: "You rank candidates."},
		{Role: "user", Content: "Current label: x"},
		{Role: "assistant", Content: "y"},
		{Role: "bogus", Content: "z"},
	}
	got := convertMessages(in)
	if len(got) != len(in) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(in))
	}

	want := []string{anyllmlib.RoleSystem, anyllmlib.RoleUser, anyllmlib.RoleAssistant, anyllmlib.RoleUser}
	for i, m := range got {
		if m.Role != want[i] {
			t.Errorf("message %d role = %q, want %q", i, m.Role, want[i])
		}
		if m.Content != in[i].Content {
			t.Errorf("message %d content = %q, want %q", i, m.Content, in[i].Content)
		}
	}
}

func TestNewRejectsEmptyProviderOrModel(t *testing.T) {
	if _, err := New("", "gpt-4o-mini"); err == nil {
		t.Error("New with empty providerName should fail")
	}
	if _, err := New("openai", ""); err == nil {
		t.Error("New with empty model should fail")
	}
}

func TestCreateBackendRejectsUnknownProvider(t *testing.T) {
	if _, err := createBackend("not-a-real-provider"); err == nil {
		t.Error("createBackend with an unknown provider name should fail")
	}
}
