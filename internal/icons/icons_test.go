package icons

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"resources/stix/malware-round-flat-300-dpi.png":       {Data: []byte("png")},
		"resources/stix/dark/malware-round-flat-300-dpi.png":  {Data: []byte("png")},
		"resources/stix/indicator-round-flat-300-dpi.png":     {Data: []byte("png")},
		"resources/stix/dark/campaign-round-flat-300-dpi.png": {Data: []byte("png")},
		"resources/stix/x-round-flat-300-dpi.png":             {Data: []byte("png")},
	}
}

func TestSTIXFallbackChain(t *testing.T) {
	r, err := New(testFS(), DefaultOptions())
	require.NoError(t, err)

	tests := []struct {
		name string
		tag  string
		want Icon
	}{
		{
			name: "both variants",
			tag:  "malware",
			want: Icon{Name: "malware", Light: "resources/stix/malware-round-flat-300-dpi.png", Dark: "resources/stix/dark/malware-round-flat-300-dpi.png"},
		},
		{
			name: "light only",
			tag:  "indicator",
			want: Icon{Name: "indicator", Light: "resources/stix/indicator-round-flat-300-dpi.png", Dark: "resources/stix/indicator-round-flat-300-dpi.png"},
		},
		{
			name: "dark only",
			tag:  "campaign",
			want: Icon{Name: "campaign", Light: "resources/stix/dark/campaign-round-flat-300-dpi.png", Dark: "resources/stix/dark/campaign-round-flat-300-dpi.png"},
		},
		{
			name: "missing",
			tag:  "sighting",
			want: Icon{Name: "x", Light: "resources/stix/x-round-flat-300-dpi.png", Dark: "resources/stix/x-round-flat-300-dpi.png"},
		},
		{
			name: "path traversal",
			tag:  "../../etc/passwd",
			want: Icon{Name: "x", Light: "resources/stix/x-round-flat-300-dpi.png", Dark: "resources/stix/x-round-flat-300-dpi.png"},
		},
		{
			name: "empty",
			tag:  "",
			want: Icon{Name: "x", Light: "resources/stix/x-round-flat-300-dpi.png", Dark: "resources/stix/x-round-flat-300-dpi.png"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, r.STIX(tt.tag))
		})
	}
}

func TestSTIXIsCached(t *testing.T) {
	fsys := testFS()
	r, err := New(fsys, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, "malware", r.STIX("malware").Name)

	delete(fsys, "resources/stix/malware-round-flat-300-dpi.png")
	delete(fsys, "resources/stix/dark/malware-round-flat-300-dpi.png")
	require.Equal(t, "malware", r.STIX("malware").Name)
}

func TestNilFSFallsBackToGeneric(t *testing.T) {
	r, err := New(nil, Options{STIXDir: "stix"})
	require.NoError(t, err)
	require.Equal(t, "stix/x-round-flat-300-dpi.png", r.STIX("malware").Light)
}

func TestBuiltin(t *testing.T) {
	opts := DefaultOptions()
	opts.Root = filepath.FromSlash("/opt/stixoutline")
	r, err := New(testFS(), opts)
	require.NoError(t, err)

	for _, kind := range []string{"boolean", "string", "number"} {
		icon, ok := r.Builtin(kind)
		require.True(t, ok, kind)
		require.Equal(t, filepath.Join(opts.Root, "resources", "light", kind+".svg"), icon.Light)
		require.Equal(t, filepath.Join(opts.Root, "resources", "dark", kind+".svg"), icon.Dark)
	}
	for _, kind := range []string{"object", "array", "null"} {
		icon, ok := r.Builtin(kind)
		require.False(t, ok, kind)
		require.True(t, icon.IsZero())
	}
}
