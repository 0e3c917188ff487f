package device

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenCreatesMissingFileTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.img")

	d, err := Open(RoleData, Target{Path: path, IsFile: true}, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	if !d.IsFile {
		t.Fatalf("expected IsFile=true for a freshly created image")
	}
	if d.IsBlock {
		t.Fatalf("a regular file must never report IsBlock=true")
	}
}

func TestOpenRejectsMissingNonFileTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does-not-exist")

	if _, err := Open(RoleData, Target{Path: path, IsFile: false}, false); err == nil {
		t.Fatalf("expected an error opening a nonexistent positional device path")
	}
}

func TestTruncateGrowsImageFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.img")

	d, err := Open(RoleData, Target{Path: path, IsFile: true}, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	const want = 64 * 1024 * 1024
	if err := d.Truncate(want); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	got, err := d.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}
}

func TestWriteAtAndReadAtRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.img")

	d, err := Open(RoleData, Target{Path: path, IsFile: true}, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()
	if err := d.Truncate(4096); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	want := []byte("xfsxfsxfs")
	if err := d.WriteAt(want, 512); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	got := make([]byte, len(want))
	if err := d.ReadAt(got, 512); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("ReadAt = %q, want %q", got, want)
	}
}

func TestWhackSignaturesSkipsRegularFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.img")

	d, err := Open(RoleData, Target{Path: path, IsFile: true}, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()
	if err := d.Truncate(1024 * 1024); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if err := d.WriteAt([]byte("marker"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	if err := d.WhackSignatures(1024 * 1024); err != nil {
		t.Fatalf("WhackSignatures: %v", err)
	}

	got := make([]byte, 6)
	if err := d.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(got) != "marker" {
		t.Fatalf("WhackSignatures must be a no-op on regular files, but overwrote the start of the file")
	}
}

func TestNoScannerNeverRefuses(t *testing.T) {
	var s SignatureScanner = NoScanner{}
	found, err := s.HasForeignSignature("/dev/null")
	if err != nil {
		t.Fatalf("HasForeignSignature: %v", err)
	}
	if found {
		t.Fatalf("NoScanner must never report a foreign signature")
	}
}

func TestRoleString(t *testing.T) {
	cases := []struct {
		r    Role
		want string
	}{
		{RoleData, "data"},
		{RoleLog, "log"},
		{RoleRealtime, "realtime"},
	}
	for _, c := range cases {
		if got := c.r.String(); got != c.want {
			t.Errorf("Role(%d).String() = %q, want %q", c.r, got, c.want)
		}
	}
}

func TestOpenExistingFilePreservesIsBlockFalse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.img")
	if err := os.WriteFile(path, make([]byte, 4096), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d, err := Open(RoleLog, Target{Path: path, IsFile: false}, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	if d.IsBlock {
		t.Fatalf("a preexisting regular file must not be treated as a block device")
	}
}
