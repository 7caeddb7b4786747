package manifest

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/rising-tools/roomservice/internal/config"
	"github.com/spf13/afero"
)

const (
	testRootManifest = `<?xml version="1.0" encoding="UTF-8"?>
<manifest>
  <include name="default.xml"/>
</manifest>
`
	testActiveManifest = `<?xml version="1.0" encoding="UTF-8"?>
<manifest>
  <remote name="aosp" fetch=".."/>
  <default revision="refs/tags/android-15.0.0_r1" remote="aosp"/>
  <project path="frameworks/base" name="platform/frameworks/base"/>
</manifest>
`
	testROMSnippet = `<?xml version="1.0" encoding="UTF-8"?>
<manifest>
  <remote name="devices" fetch="https://github.com/RisingTechOSS-devices" revision="refs/heads/sixteen"/>
  <project path="vendor/rising" name="android_vendor_rising" remote="rising"/>
</manifest>
`
	testBaseSnippet = `<?xml version="1.0" encoding="UTF-8"?>
<manifest>
  <project path="hardware/qcom/display" name="android_hardware_qcom_display" remote="github"/>
  <project path="packages/apps/Settings" name="android_packages_apps_Settings" remote="github"/>
</manifest>
`
)

func testConfig(dryRun bool) *config.Config {
	return &config.Config{
		WorkDir:       "/work",
		DryRun:        dryRun,
		DefaultRemote: "devices",
		LookupRemote:  "github",
		Paths:         config.DefaultPaths(),
	}
}

// newTestTree returns an in-memory checkout holding a standard .repo layout.
func newTestTree(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewBasePathFs(afero.NewMemMapFs(), "/work")
	paths := config.DefaultPaths()
	writeFile(t, fs, paths.RootManifest, testRootManifest)
	writeFile(t, fs, ".repo/manifests/default.xml", testActiveManifest)
	writeFile(t, fs, paths.ROMSnippet, testROMSnippet)
	writeFile(t, fs, paths.BaseSnippet, testBaseSnippet)
	return fs
}

func newTestStore(t *testing.T, fs afero.Fs, dryRun bool) *Store {
	t.Helper()
	return NewStore(fs, testConfig(dryRun), log.New(io.Discard))
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestNormalizeRevision(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"refs/heads/fifteen", "fifteen"},
		{"refs/tags/fifteen", "fifteen"},
		{"fifteen", "fifteen"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeRevision(tt.in); got != tt.want {
			t.Errorf("NormalizeRevision(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestActiveManifestPath(t *testing.T) {
	t.Run("include", func(t *testing.T) {
		s := newTestStore(t, newTestTree(t), false)
		got, err := s.ActiveManifestPath()
		if err != nil {
			t.Fatalf("ActiveManifestPath: %v", err)
		}
		if got != ".repo/manifests/default.xml" {
			t.Errorf("got %q, want %q", got, ".repo/manifests/default.xml")
		}
	})

	t.Run("root has default", func(t *testing.T) {
		fs := newTestTree(t)
		writeFile(t, fs, ".repo/manifest.xml", testActiveManifest)
		s := newTestStore(t, fs, false)
		got, err := s.ActiveManifestPath()
		if err != nil {
			t.Fatalf("ActiveManifestPath: %v", err)
		}
		if got != ".repo/manifest.xml" {
			t.Errorf("got %q, want %q", got, ".repo/manifest.xml")
		}
	})

	t.Run("missing root", func(t *testing.T) {
		s := newTestStore(t, afero.NewBasePathFs(afero.NewMemMapFs(), "/work"), false)
		if _, err := s.ActiveManifestPath(); err == nil {
			t.Fatal("expected error without a root manifest")
		}
	})
}

func TestDefaultRevision(t *testing.T) {
	s := newTestStore(t, newTestTree(t), false)

	rev, err := s.DefaultRevision("devices")
	if err != nil {
		t.Fatalf("DefaultRevision: %v", err)
	}
	if rev != "sixteen" {
		t.Errorf("DefaultRevision = %q, want %q", rev, "sixteen")
	}

	if _, err := s.DefaultRevision("nope"); !errors.Is(err, ErrNoRemote) {
		t.Errorf("DefaultRevision(nope) error = %v, want ErrNoRemote", err)
	}
}

func TestExistsAcrossFragments(t *testing.T) {
	fs := newTestTree(t)
	writeFile(t, fs, ".repo/local_manifests/extra.xml", `<manifest>
  <project path="device/acme/widget" name="device_acme_widget" remote="devices"/>
</manifest>`)
	s := newTestStore(t, fs, false)

	tests := []struct {
		path string
		want bool
	}{
		{"device/acme/widget", true}, // local fragment
		{"frameworks/base", true},    // active manifest
		{"vendor/rising", true},      // ROM snippet
		{"kernel/acme/widget", false},
	}
	for _, tt := range tests {
		if got := s.Exists(tt.path); got != tt.want {
			t.Errorf("Exists(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestExistsTreatsMalformedFragmentAsEmpty(t *testing.T) {
	fs := newTestTree(t)
	writeFile(t, fs, ".repo/local_manifests/broken.xml", `<manifest><project path="a/b"`)
	s := newTestStore(t, fs, false)

	if s.Exists("a/b") {
		t.Error("malformed fragment should count as empty")
	}
	if !s.Exists("frameworks/base") {
		t.Error("a malformed fragment must not hide other fragments")
	}
}

func TestLookupDevice(t *testing.T) {
	fs := newTestTree(t)
	writeFile(t, fs, ".repo/local_manifests/roomservice.xml", `<manifest>
  <project path="device/acme/widget" name="device_acme_widget" remote="devices"/>
</manifest>`)
	s := newTestStore(t, fs, false)

	if got := s.LookupDevice("widget"); got != "device/acme/widget" {
		t.Errorf("LookupDevice(widget) = %q, want %q", got, "device/acme/widget")
	}
	if got := s.LookupDevice("gadget"); got != "" {
		t.Errorf("LookupDevice(gadget) = %q, want empty", got)
	}
}

func TestAppendWritesFormattedFragment(t *testing.T) {
	fs := newTestTree(t)
	s := newTestStore(t, fs, false)

	added, err := s.Append([]Entry{{
		Name:     "device_acme_widget",
		Path:     "device/acme/widget",
		Revision: "sixteen",
	}})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(added) != 1 || added[0] != "device/acme/widget" {
		t.Fatalf("added = %v, want [device/acme/widget]", added)
	}

	want := `<?xml version="1.0" encoding="UTF-8"?>
<manifest>
  <project path="device/acme/widget" remote="devices" name="device_acme_widget" revision="sixteen"/>
</manifest>
`
	if got := readFile(t, fs, ".repo/local_manifests/roomservice.xml"); got != want {
		t.Errorf("fragment =\n%s\nwant\n%s", got, want)
	}
}

func TestAppendShallowCloneRule(t *testing.T) {
	fs := newTestTree(t)
	s := newTestStore(t, fs, false)

	_, err := s.Append([]Entry{{
		Name:     "platform/external/foo",
		Path:     "external/foo",
		Remote:   "aosp-mirror",
		Revision: "android-15.0.0_r1",
	}})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	got := readFile(t, fs, ".repo/local_manifests/roomservice.xml")
	if !strings.Contains(got, `clone-depth="1"`) {
		t.Errorf("aosp- remote should force clone-depth=1:\n%s", got)
	}
	if strings.Contains(got, "revision=") {
		t.Errorf("aosp- remote must not carry a revision:\n%s", got)
	}
}

func TestAppendDeduplicatesWithinBatch(t *testing.T) {
	fs := newTestTree(t)
	s := newTestStore(t, fs, false)

	added, err := s.Append([]Entry{
		{Name: "vendor_acme", Path: "vendor/acme"},
		{Name: "vendor_acme_alt", Path: "vendor/acme"},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("added %d entries, want 1", len(added))
	}
	if got := strings.Count(readFile(t, fs, ".repo/local_manifests/roomservice.xml"), "<project"); got != 1 {
		t.Errorf("fragment holds %d projects, want 1", got)
	}
}

func TestAppendSkipsDeclaredPaths(t *testing.T) {
	fs := newTestTree(t)
	s := newTestStore(t, fs, false)

	added, err := s.Append([]Entry{{Name: "platform/frameworks/base", Path: "frameworks/base"}})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(added) != 0 {
		t.Errorf("added = %v, want none", added)
	}
	if ok, _ := afero.Exists(fs, ".repo/local_manifests/roomservice.xml"); ok {
		t.Error("no fragment should be written when nothing changed")
	}
}

func TestAppendOverride(t *testing.T) {
	fs := newTestTree(t)
	s := newTestStore(t, fs, false)

	added, err := s.Append([]Entry{{
		Name:     "android_hardware_acme_display",
		Path:     "hardware/qcom/display",
		Override: &Override{Repo: "android_hardware_qcom_display", Path: "hardware/qcom/display"},
	}})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("added = %v, want the replacement project", added)
	}

	base := readFile(t, fs, ".repo/manifests/snippets/lineage.xml")
	if !strings.Contains(base, `<!-- <project path="hardware/qcom/display"`) {
		t.Errorf("overridden project should be commented out:\n%s", base)
	}
	if !strings.Contains(base, `<project path="packages/apps/Settings"`) {
		t.Errorf("unrelated projects must stay live:\n%s", base)
	}
	if got := readFile(t, fs, s.BackupPath()); got != testBaseSnippet {
		t.Errorf("backup should hold the original snippet, got:\n%s", got)
	}

	local := readFile(t, fs, ".repo/local_manifests/roomservice.xml")
	if !strings.Contains(local, `name="android_hardware_acme_display"`) {
		t.Errorf("replacement project missing from local fragment:\n%s", local)
	}
}

func TestAppendOverrideIgnoresNameMismatch(t *testing.T) {
	fs := newTestTree(t)
	s := newTestStore(t, fs, false)

	_, err := s.Append([]Entry{{
		Name:     "android_hardware_acme_display",
		Path:     "hardware/acme/display",
		Override: &Override{Repo: "some_other_repo", Path: "hardware/qcom/display"},
	}})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := readFile(t, fs, ".repo/manifests/snippets/lineage.xml"); got != testBaseSnippet {
		t.Errorf("base snippet should be untouched:\n%s", got)
	}
}

const qcomDisplay = `<project path="hardware/qcom/display" name="android_hardware_qcom_display" remote="github"/>`

// liveProjects counts uncommented <project> elements at path in content.
func liveProjects(content, path string) int {
	all := strings.Count(content, `<project path="`+path+`"`)
	return all - strings.Count(content, `<!-- <project path="`+path+`"`)
}

// newSpreadTree declares hardware/qcom/display in another local fragment,
// the local fragment, the active manifest, and the base snippet.
func newSpreadTree(t *testing.T) afero.Fs {
	t.Helper()
	fs := newTestTree(t)
	fragment := "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<manifest>\n  " + qcomDisplay + "\n</manifest>\n"
	writeFile(t, fs, ".repo/local_manifests/other.xml", fragment)
	writeFile(t, fs, ".repo/local_manifests/roomservice.xml", fragment)
	writeFile(t, fs, ".repo/manifests/default.xml", strings.Replace(testActiveManifest,
		"</manifest>", "  "+qcomDisplay+"\n</manifest>", 1))
	return fs
}

func TestAppendOverrideAcrossFragments(t *testing.T) {
	fs := newSpreadTree(t)
	s := newTestStore(t, fs, false)

	added, err := s.Append([]Entry{{
		Name:     "android_hardware_acme_display",
		Path:     "hardware/acme/display",
		Override: &Override{Repo: "android_hardware_qcom_display", Path: "hardware/qcom/display"},
	}})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(added) != 1 || added[0] != "hardware/acme/display" {
		t.Fatalf("added = %v, want [hardware/acme/display]", added)
	}

	for _, file := range []string{
		".repo/local_manifests/other.xml",
		".repo/local_manifests/roomservice.xml",
		".repo/manifests/default.xml",
		".repo/manifests/snippets/lineage.xml",
	} {
		got := readFile(t, fs, file)
		if !strings.Contains(got, `<!-- <project path="hardware/qcom/display"`) {
			t.Errorf("%s: overridden project not commented out:\n%s", file, got)
		}
		if n := liveProjects(got, "hardware/qcom/display"); n != 0 {
			t.Errorf("%s: %d live projects at hardware/qcom/display:\n%s", file, n, got)
		}
	}
	if s.Exists("hardware/qcom/display") {
		t.Error("overridden path still counts as declared")
	}
	if local := readFile(t, fs, ".repo/local_manifests/roomservice.xml"); liveProjects(local, "hardware/acme/display") != 1 {
		t.Errorf("replacement project missing from local fragment:\n%s", local)
	}
	if got := readFile(t, fs, s.BackupPath()); got != testBaseSnippet {
		t.Errorf("backup should hold the snippet as it was before the override, got:\n%s", got)
	}
}

func TestAppendOverrideLeavesUntouchedFragmentUnwritten(t *testing.T) {
	fs := newTestTree(t)
	writeFile(t, fs, ".repo/local_manifests/other.xml",
		"<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<manifest>\n  "+qcomDisplay+"\n</manifest>\n")
	s := newTestStore(t, fs, false)

	// frameworks/base is already declared, so only the override has an effect.
	added, err := s.Append([]Entry{{
		Name:     "platform/frameworks/base",
		Path:     "frameworks/base",
		Override: &Override{Repo: "android_hardware_qcom_display", Path: "hardware/qcom/display"},
	}})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(added) != 0 {
		t.Errorf("added = %v, want none", added)
	}
	if got := readFile(t, fs, ".repo/local_manifests/other.xml"); liveProjects(got, "hardware/qcom/display") != 0 {
		t.Errorf("override not applied to other.xml:\n%s", got)
	}
	if ok, _ := afero.Exists(fs, ".repo/local_manifests/roomservice.xml"); ok {
		t.Error("local fragment written although it did not change")
	}
}

func TestDefaultRevisionQuotedRemote(t *testing.T) {
	s := newTestStore(t, newTestTree(t), false)

	if _, err := s.DefaultRevision("dev's"); !errors.Is(err, ErrNoRemote) {
		t.Errorf("DefaultRevision(dev's) error = %v, want ErrNoRemote", err)
	}
}

func TestCommentOutRoundTrips(t *testing.T) {
	fs := newTestTree(t)
	s := newTestStore(t, fs, false)

	if !s.Exists("frameworks/base") {
		t.Fatal("frameworks/base should be declared by the active manifest")
	}
	changed, err := s.CommentOut("frameworks/base")
	if err != nil {
		t.Fatalf("CommentOut: %v", err)
	}
	if !changed {
		t.Fatal("CommentOut reported no change")
	}
	if s.Exists("frameworks/base") {
		t.Error("commented-out project still counts as declared")
	}

	// The rewritten file must still parse and be stable under re-encoding.
	first := readFile(t, fs, ".repo/manifests/default.xml")
	doc, err := readDocument(fs, ".repo/manifests/default.xml")
	if err != nil {
		t.Fatalf("re-reading commented snippet: %v", err)
	}
	again, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(again) != first {
		t.Errorf("re-encoding changed the file:\n%s\nvs\n%s", again, first)
	}
}

func TestDryRunWritesNothing(t *testing.T) {
	fs := newTestTree(t)
	s := newTestStore(t, fs, true)

	if err := s.EnsureLocalDir(); err != nil {
		t.Fatalf("EnsureLocalDir: %v", err)
	}
	added, err := s.Append([]Entry{
		{Name: "vendor_acme", Path: "vendor/acme"},
		{Name: "x", Path: "hardware/qcom/display", Override: &Override{Repo: "android_hardware_qcom_display", Path: "hardware/qcom/display"}},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(added) != 0 {
		t.Errorf("dry-run added %v", added)
	}
	if changed, _ := s.CommentOut("hardware/qcom/display"); changed {
		t.Error("dry-run CommentOut reported a change")
	}

	if ok, _ := afero.DirExists(fs, ".repo/local_manifests"); ok {
		t.Error("dry-run created the local fragment directory")
	}
	if got := readFile(t, fs, ".repo/manifests/snippets/lineage.xml"); got != testBaseSnippet {
		t.Error("dry-run modified the base snippet")
	}
	if ok, _ := afero.Exists(fs, s.BackupPath()); ok {
		t.Error("dry-run created a backup")
	}
}

func TestRestoreBackupAndRemoveLocal(t *testing.T) {
	fs := newTestTree(t)
	s := newTestStore(t, fs, false)

	if _, err := s.Append([]Entry{{Name: "vendor_acme", Path: "vendor/acme"}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := s.CommentOut("hardware/qcom/display"); err != nil {
		t.Fatalf("CommentOut: %v", err)
	}

	if err := s.RestoreBackup(); err != nil {
		t.Fatalf("RestoreBackup: %v", err)
	}
	if err := s.RemoveLocal(); err != nil {
		t.Fatalf("RemoveLocal: %v", err)
	}

	if got := readFile(t, fs, ".repo/manifests/snippets/lineage.xml"); got != testBaseSnippet {
		t.Errorf("base snippet not restored:\n%s", got)
	}
	if ok, _ := afero.Exists(fs, s.BackupPath()); ok {
		t.Error("backup should be consumed by restore")
	}
	if ok, _ := afero.DirExists(fs, ".repo/local_manifests"); ok {
		t.Error("local manifests directory should be removed")
	}

	// Both are safe to repeat.
	if err := s.RestoreBackup(); err != nil {
		t.Errorf("second RestoreBackup: %v", err)
	}
	if err := s.RemoveLocal(); err != nil {
		t.Errorf("second RemoveLocal: %v", err)
	}
}
