package prompts

import (
	"strings"
	"testing"
)

func TestLookupKnownTemplates(t *testing.T) {
	for _, name := range []string{"ro-analyst", "RO-Compact ", "ro-compact"} {
		tmpl, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) returned error: %v", name, err)
		}
		if tmpl.Sentinel() != Unavailable {
			t.Errorf("sentinel = %q", tmpl.Sentinel())
		}
	}
	if _, err := Lookup("en-tipster"); err == nil {
		t.Fatal("expected unknown template error")
	}
}

func TestBaseRendersMatchFields(t *testing.T) {
	tests := []struct {
		name    string
		section string
	}{
		{"ro-analyst", "5) INTERPRETARE ȘI NIVEL DE INCERTITUDINE:"},
		{"ro-compact", "5) Nivel de incertitudine"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := Lookup(tt.name)
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			base, err := tmpl.Base("Team A vs Team B", "Test League", "NS")
			if err != nil {
				t.Fatalf("Base: %v", err)
			}
			for _, want := range []string{"Meci: Team A vs Team B", "Liga: Test League", "Status curent: NS", tt.section} {
				if !strings.Contains(base, want) {
					t.Errorf("base prompt missing %q", want)
				}
			}
			if strings.Contains(base, "{{") {
				t.Error("base prompt contains unrendered placeholders")
			}
		})
	}
}

func TestStrictAppendsDirective(t *testing.T) {
	tmpl, _ := Lookup("ro-analyst")
	strict := tmpl.Strict("BASE")
	if !strings.HasPrefix(strict, "BASE\n\nIMPORTANT:") {
		t.Errorf("strict prompt should extend the base, got %q", strict[:min(len(strict), 40)])
	}
	if !strings.HasSuffix(strict, "răspunde exact: "+Unavailable) {
		t.Errorf("strict prompt should end with the sentinel instruction, got %q", strict)
	}
	if !strings.Contains(strict, "Fără caractere { } < > sau backticks") {
		t.Error("strict prompt should forbid braces and angle brackets")
	}
}

func TestContinuationCarriesPartialText(t *testing.T) {
	tmpl, _ := Lookup("ro-analyst")
	partial := "1) CONTEXT ȘI MIZE:\nMeciul {{nu}} a început"
	prompt := tmpl.Continuation("BASE", partial)
	if !strings.HasPrefix(prompt, "BASE\n\n") {
		t.Errorf("continuation prompt should extend the base")
	}
	if !strings.Contains(prompt, partial) {
		t.Error("continuation prompt should quote the partial text verbatim")
	}
	if !strings.Contains(prompt, "Continuă EXACT de unde a rămas") {
		t.Error("continuation prompt should ask to continue")
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if len(names) != 2 || names[0] != "ro-analyst" || names[1] != "ro-compact" {
		t.Errorf("Names() = %v", names)
	}
}
