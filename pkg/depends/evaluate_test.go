package depends

import (
	"testing"

	"github.com/dpkgo/dpkgo/pkg/version"
)

func lookupFixture(installed map[string]string, virtual map[string][]string) Lookup {
	return func(name string) (bool, version.Version, []string, string) {
		if verStr, ok := installed[name]; ok {
			return true, version.MustParse(verStr), nil, "amd64"
		}

		for provider, provides := range virtual {
			if _, ok := installed[provider]; !ok {
				continue
			}

			for _, p := range provides {
				if p == name {
					return true, version.Version{}, provides, "amd64"
				}
			}
		}

		return false, version.Version{}, nil, ""
	}
}

func TestEvaluateSatisfied(t *testing.T) {
	expr, err := Parse("libc6 (>= 2.30)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	lookup := lookupFixture(map[string]string{"libc6": "2.34-1"}, nil)

	result := Evaluate(expr, lookup, nil)
	if !result.Satisfied {
		t.Fatalf("expected satisfied, got %+v", result)
	}
}

func TestEvaluateUnsatisfiedVersion(t *testing.T) {
	expr, err := Parse("libc6 (>= 2.40)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	lookup := lookupFixture(map[string]string{"libc6": "2.34-1"}, nil)

	result := Evaluate(expr, lookup, nil)
	if result.Satisfied {
		t.Fatal("expected unsatisfied for too-old version")
	}

	if len(result.FailingClauses) != 1 {
		t.Fatalf("expected 1 failing clause, got %d", len(result.FailingClauses))
	}
}

func TestEvaluateAlternativePrefersInstalled(t *testing.T) {
	expr, err := Parse("foo | bar")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	lookup := lookupFixture(map[string]string{"bar": "1.0"}, nil)

	result := Evaluate(expr, lookup, nil)
	if !result.Satisfied {
		t.Fatal("expected satisfied via installed alternative")
	}

	if _, ok := result.SatisfiedAtoms["bar"]; !ok {
		t.Fatalf("expected bar chosen as installed alternative, got %+v", result.SatisfiedAtoms)
	}
}

func TestEvaluateAlternativePrefersSelectedOverFirstListed(t *testing.T) {
	expr, err := Parse("foo | bar")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	lookup := func(name string) (bool, version.Version, []string, string) {
		return true, version.Version{}, nil, "amd64"
	}

	selected := func(name string) bool { return name == "bar" }

	result := Evaluate(expr, lookup, selected)
	if !result.Satisfied {
		t.Fatal("expected satisfied")
	}

	if _, ok := result.SatisfiedAtoms["bar"]; !ok {
		t.Fatalf("expected bar chosen as the selected candidate, got %+v", result.SatisfiedAtoms)
	}
}

func TestEvaluateAlternativeFirstListedFallback(t *testing.T) {
	expr, err := Parse("foo | bar")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	lookup := func(name string) (bool, version.Version, []string, string) {
		return true, version.Version{}, nil, "amd64"
	}

	result := Evaluate(expr, lookup, nil)
	if !result.Satisfied {
		t.Fatal("expected satisfied")
	}

	if _, ok := result.SatisfiedAtoms["foo"]; !ok {
		t.Fatalf("expected foo chosen as the first-listed candidate, got %+v", result.SatisfiedAtoms)
	}
}

func TestEvaluateUnknownPackage(t *testing.T) {
	expr, err := Parse("nonexistent")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	lookup := func(name string) (bool, version.Version, []string, string) {
		return false, version.Version{}, nil, ""
	}

	result := Evaluate(expr, lookup, nil)
	if result.Satisfied {
		t.Fatal("expected unsatisfied for unknown package")
	}
}
