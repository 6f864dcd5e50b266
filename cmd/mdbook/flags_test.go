package main

import (
	"reflect"
	"testing"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    cliFlags
		wantErr bool
	}{
		{
			name: "config path only",
			args: []string{"book.yaml"},
			want: cliFlags{configPath: "book.yaml"},
		},
		{
			name: "no arguments",
			args: nil,
			want: cliFlags{},
		},
		{
			name: "verbose short flag",
			args: []string{"-v", "book.yaml"},
			want: cliFlags{configPath: "book.yaml", verbose: true},
		},
		{
			name: "version",
			args: []string{"--version"},
			want: cliFlags{showVersion: true},
		},
		{
			name: "single format",
			args: []string{"--format", "epub", "book.yaml"},
			want: cliFlags{configPath: "book.yaml", formats: []string{"epub"}},
		},
		{
			name: "repeated and comma separated formats",
			args: []string{"-f", "epub,html", "-f", "pdf", "book.yaml"},
			want: cliFlags{configPath: "book.yaml", formats: []string{"epub", "html", "pdf"}},
		},
		{
			name:    "too many positionals",
			args:    []string{"a.yaml", "b.yaml"},
			wantErr: true,
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseFlags(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseFlags(%v) succeeded, want error", tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFlags(%v): %v", tt.args, err)
			}
			if !reflect.DeepEqual(*got, tt.want) {
				t.Errorf("parseFlags(%v) = %+v, want %+v", tt.args, *got, tt.want)
			}
		})
	}
}

func TestFilterFormats(t *testing.T) {
	t.Parallel()

	configured := []string{"epub", "html", "tex"}

	tests := []struct {
		name      string
		requested []string
		want      []string
	}{
		{"subset keeps configured order", []string{"html", "epub"}, []string{"epub", "html"}},
		{"unconfigured request dropped", []string{"pdf"}, nil},
		{"exact match", []string{"tex"}, []string{"tex"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := filterFormats(configured, tt.requested)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("filterFormats(%v) = %v, want %v", tt.requested, got, tt.want)
			}
		})
	}
}
