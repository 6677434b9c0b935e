package database

import "testing"

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantDesc    string
		wantErr     bool
	}{
		{
			name:        "valid filename",
			filename:    "20260301_120000_create_change_records.up.sql",
			wantVersion: "20260301_120000",
			wantDesc:    "create_change_records",
		},
		{
			name:     "missing description",
			filename: "20260301_120000.up.sql",
			wantErr:  true,
		},
		{
			name:     "no version",
			filename: "create_tables.up.sql",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, desc, err := parseMigrationFilename(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseMigrationFilename(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
			if desc != tt.wantDesc {
				t.Errorf("desc = %q, want %q", desc, tt.wantDesc)
			}
		})
	}
}
