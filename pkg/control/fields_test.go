package control

import "testing"

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()

	def, ok := r.Lookup("package")
	if !ok || def.Name != "Package" {
		t.Fatalf("Lookup(package) = %+v, ok=%v", def, ok)
	}

	if _, ok := r.Lookup("Nonexistent-Field"); ok {
		t.Fatal("expected Nonexistent-Field to be unregistered")
	}
}

func TestRegisterCustomField(t *testing.T) {
	r := NewRegistry()

	r.Register(Definition{Name: "X-Custom", Help: "custom field", Kind: KindText})

	def, ok := r.Lookup("x-custom")
	if !ok || def.Kind != KindText {
		t.Fatalf("expected registered custom field, got %+v ok=%v", def, ok)
	}
}

func TestVerifyValueRequired(t *testing.T) {
	def := &Definition{Name: "Package", Kind: KindText, Required: true}

	if err := def.VerifyValue(""); err == nil {
		t.Fatal("expected error for required empty value")
	}

	if err := def.VerifyValue("dpkgo-core"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifyValueEmailList(t *testing.T) {
	def := &Definition{Name: "Maintainer", Kind: KindEmailList}

	if err := def.VerifyValue("Example Maintainer <maint@example.com>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := def.VerifyValue("not-an-address"); err == nil {
		t.Fatal("expected error for invalid address")
	}
}

func TestVerifyValueURL(t *testing.T) {
	def := &Definition{Name: "Homepage", Kind: KindURL}

	if err := def.VerifyValue("https://example.com/project"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := def.VerifyValue("not a url"); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestVerifyValuePriority(t *testing.T) {
	def := &Definition{Name: "Priority", Kind: KindPriority}

	if err := def.VerifyValue("optional"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := def.VerifyValue("urgent"); err == nil {
		t.Fatal("expected error for invalid priority")
	}
}

func TestVerifyValueUrgency(t *testing.T) {
	def := &Definition{Name: "Urgency", Kind: KindUrgency}

	if err := def.VerifyValue("high"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := def.VerifyValue("whenever"); err == nil {
		t.Fatal("expected error for invalid urgency")
	}
}

func TestVerifyValueBool(t *testing.T) {
	def := &Definition{Name: "Essential", Kind: KindBool}

	for _, v := range []string{"yes", "no", "true", "false"} {
		if err := def.VerifyValue(v); err != nil {
			t.Fatalf("VerifyValue(%q) unexpected error: %v", v, err)
		}
	}

	if err := def.VerifyValue("maybe"); err == nil {
		t.Fatal("expected error for invalid boolean")
	}
}

func TestVerifyValueSize(t *testing.T) {
	def := &Definition{Name: "Installed-Size", Kind: KindSize}

	if err := def.VerifyValue("1024"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := def.VerifyValue("not-a-size"); err == nil {
		t.Fatal("expected error for non-numeric size")
	}
}

func TestVerifyValueDate(t *testing.T) {
	def := &Definition{Name: "Date", Kind: KindDate}

	if err := def.VerifyValue("Mon, 02 Jan 2006 15:04:05 +0000"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := def.VerifyValue("not a date"); err == nil {
		t.Fatal("expected error for invalid date")
	}
}

func TestVerifyValueArchitecture(t *testing.T) {
	def := &Definition{Name: "Architecture", Kind: KindArch}

	for _, v := range []string{"all", "amd64", "linux-any", "any-arm64"} {
		if err := def.VerifyValue(v); err != nil {
			t.Fatalf("VerifyValue(%q) unexpected error: %v", v, err)
		}
	}
}

func TestVerifyAll(t *testing.T) {
	r := NewRegistry()

	f, err := Parse(sampleStanza)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	errs := r.VerifyAll(f, "")
	if len(errs) != 0 {
		t.Fatalf("expected no errors for well-formed stanza, got %v", errs)
	}
}

func TestVerifyAllMissingRequired(t *testing.T) {
	r := NewRegistry()

	f, err := Parse("Package: dpkgo-core\n")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	errs := r.VerifyAll(f, "")
	if len(errs) == 0 {
		t.Fatal("expected errors for missing required fields")
	}
}
