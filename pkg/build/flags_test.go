// SPDX-License-Identifier: MIT
package build

import "testing"

func dev() *Info {
	return &Info{Name: "beatviz", Time: "unknown", Commit: "unknown", Version: "dev"}
}

// stamp sets the ldflags variables for one test and restores them after.
func stamp(t *testing.T, ldflags Info) {
	t.Helper()
	saved := [4]string{buildName, buildTime, buildCommit, buildVersion}
	savedFlags := buildFlags
	t.Cleanup(func() {
		buildName, buildTime, buildCommit, buildVersion = saved[0], saved[1], saved[2], saved[3]
		buildFlags = savedFlags
	})
	buildName, buildTime, buildCommit, buildVersion = ldflags.Name, ldflags.Time, ldflags.Commit, ldflags.Version
	buildFlags = dev()
}

func TestInitialize(t *testing.T) {
	full := Info{Name: "beatviz", Time: "2026-03-01T10:00:00Z", Commit: "9f1c2e4", Version: "0.3.0"}

	tests := []struct {
		name    string
		ldflags func(i *Info)
		wantErr string
		want    Info
	}{
		{"release build", func(*Info) {}, "", full},
		{"development build", func(i *Info) { *i = Info{} }, "", *dev()},
		{"missing name", func(i *Info) { i.Name = "" }, "BuildName is required", *dev()},
		{"missing time", func(i *Info) { i.Time = "" }, "BuildTime is required", *dev()},
		{"missing commit", func(i *Info) { i.Commit = "" }, "BuildCommit is required", *dev()},
		{"missing version", func(i *Info) { i.Version = "" }, "BuildVersion is required", *dev()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ldflags := full
			tt.ldflags(&ldflags)
			stamp(t, ldflags)

			err := Initialize()
			switch {
			case tt.wantErr == "" && err != nil:
				t.Fatalf("Initialize() unexpected error: %v", err)
			case tt.wantErr != "" && (err == nil || err.Error() != tt.wantErr):
				t.Fatalf("Initialize() error = %v, want %q", err, tt.wantErr)
			}
			if got := *GetBuildFlags(); got != tt.want {
				t.Errorf("GetBuildFlags() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Name: "beatviz", Time: "2026-01-02", Commit: "abc123", Version: "0.3.0"}
	want := "beatviz 0.3.0 (commit abc123, built 2026-01-02)"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
