package security

import (
	"strings"
	"testing"
)

func TestCheckLength(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		max     int
		wantErr bool
	}{
		{"Valid", "short", 10, false},
		{"Too long", "verylongstring", 5, true},
		{"Exact limit", "exact", 5, false},
		{"Empty", "", 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckLength("folder name", tt.input, tt.max)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckLength() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !IsLimitError(err) {
				t.Errorf("expected a *LimitError, got %T", err)
			}
		})
	}
}

func TestLimitError(t *testing.T) {
	err := CheckLength("folder name", "abcdef", 3)
	if err == nil {
		t.Fatal("expected an error")
	}
	if want := "folder name is too large: 6 (max 3)"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCheckURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"Valid HTTPS", "https://example.com/path", false},
		{"Android app", "androidapp://com.example", false},
		{"With null byte", "http://example.com\x00/path", true},
		{"Too long", "http://" + strings.Repeat("a", MaxURLLength), true},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckAttachment(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"Valid small", 1024, false},
		{"Valid max", MaxAttachmentSize, false},
		{"Too large", MaxAttachmentSize + 1, true},
		{"Negative", -1, true},
		{"Zero", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAttachment("backup.zip", tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckAttachment() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckItemCount(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{"Empty vault", 0, false},
		{"Typical vault", 850, false},
		{"At limit", MaxItemCount, false},
		{"Over limit", MaxItemCount + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckItemCount(tt.count)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckItemCount() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsExecutable(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"document.pdf", false},
		{"github-recovery-codes.txt", false},
		{"id_ed25519", false},
		{"ca.pem", false},
		{"setup.exe", true},
		{"library.dll", true},
		{"deploy.sh", true},
		{"install.ps1", true},
		{"SETUP.EXE", true},
		{"archive.exe.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := IsExecutable(tt.filename); got != tt.want {
				t.Errorf("IsExecutable(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}
