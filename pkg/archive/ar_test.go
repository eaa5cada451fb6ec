package archive

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteDebAndReadDebRoundTrip(t *testing.T) {
	dir := t.TempDir()

	control := filepath.Join(dir, "control.tar.zst")
	data := filepath.Join(dir, "data.tar.zst")

	if err := os.WriteFile(control, []byte("control-bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := os.WriteFile(data, []byte("data-bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	debPath := filepath.Join(dir, "pkg.deb")
	if err := WriteDeb(debPath, control, data); err != nil {
		t.Fatalf("WriteDeb failed: %v", err)
	}

	members, err := ReadDeb(debPath)
	if err != nil {
		t.Fatalf("ReadDeb failed: %v", err)
	}

	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}

	if members[0].Name != DebianBinaryMember || string(members[0].Data) != debianBinaryContent {
		t.Fatalf("unexpected debian-binary member: %+v", members[0])
	}

	if members[1].Name != ControlMember || string(members[1].Data) != "control-bytes" {
		t.Fatalf("unexpected control member: %+v", members[1])
	}

	if members[2].Name != DataMember || string(members[2].Data) != "data-bytes" {
		t.Fatalf("unexpected data member: %+v", members[2])
	}
}

func TestReadDebMissingFile(t *testing.T) {
	if _, err := ReadDeb(filepath.Join(t.TempDir(), "missing.deb")); err == nil {
		t.Fatal("expected error reading a missing .deb file")
	}
}
