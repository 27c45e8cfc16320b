package providers

import (
	"testing"
)

func TestFindByModel(t *testing.T) {
	tests := []struct {
		model    string
		wantName string
	}{
		{"gpt-4o", "openai"},
		{"claude-3-5-sonnet", "anthropic"},
		{"deepseek-chat", "deepseek"},
	}
	for _, tt := range tests {
		spec := FindByModel(tt.model)
		if spec == nil {
			t.Errorf("FindByModel(%q) = nil, want %q", tt.model, tt.wantName)
			continue
		}
		if spec.Name != tt.wantName {
			t.Errorf("FindByModel(%q).Name = %q, want %q", tt.model, spec.Name, tt.wantName)
		}
	}
}

func TestFindByModelUnknown(t *testing.T) {
	spec := FindByModel("totally-unknown-model-xyz")
	if spec != nil {
		t.Errorf("FindByModel(unknown) = %q, want nil", spec.Name)
	}
}

func TestFindByName(t *testing.T) {
	spec := FindByName("anthropic")
	if spec == nil {
		t.Fatal("FindByName(anthropic) = nil")
	}
	if spec.Name != "anthropic" {
		t.Errorf("FindByName(anthropic).Name = %q, want anthropic", spec.Name)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		apiKey   string
		model    string
		wantType string
		wantErr  bool
	}{
		{"anthropic by name", "anthropic", "k", "", "anthropic", false},
		{"openai by model", "", "k", "gpt-4o-mini", "openai", false},
		{"ollama without key", "ollama", "", "", "openai", false},
		{"missing key", "openai", "", "", "", true},
		{"unknown provider", "nope", "k", "", "", true},
		{"unresolvable model", "", "k", "mystery", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := New(tc.provider, tc.apiKey, "", tc.model)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch p.(type) {
			case *AnthropicProvider:
				if tc.wantType != "anthropic" {
					t.Errorf("got anthropic provider")
				}
			case *OpenAICompatProvider:
				if tc.wantType != "openai" {
					t.Errorf("got openai-compatible provider")
				}
			}
		})
	}
}
