package command

import (
	"reflect"
	"testing"
)

func TestSplitWords(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{name: "simple words", in: "send-keys -t 0 Enter", want: []string{"send-keys", "-t", "0", "Enter"}},
		{name: "single quoted preserves spaces", in: `echo 'hello world'`, want: []string{"echo", "hello world"}},
		{name: "double quoted preserves spaces", in: `echo "hello world"`, want: []string{"echo", "hello world"}},
		{name: "backslash escapes next char", in: `echo hello\ world`, want: []string{"echo", "hello world"}},
		{name: "double quote honors backslash escape", in: `echo "a\"b"`, want: []string{"echo", `a"b`}},
		{name: "empty string yields no words", in: "", want: nil},
		{name: "unterminated single quote errors", in: `echo 'unterminated`, wantErr: true},
		{name: "unterminated double quote errors", in: `echo "unterminated`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitWords(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got none (result %v)", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
