package common

import "testing"

func TestGetFeedFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{
			name: "with feed specified",
			args: map[string]interface{}{
				"feed": "work",
			},
			want: "work",
		},
		{
			name: "with identifier specified",
			args: map[string]interface{}{
				"identifier": "a1b2c3d4",
			},
			want: "a1b2c3d4",
		},
		{
			name: "feed wins over identifier",
			args: map[string]interface{}{
				"feed":       "work",
				"identifier": "a1b2c3d4",
			},
			want: "work",
		},
		{
			name: "without feed",
			args: map[string]interface{}{},
			want: "",
		},
		{
			name: "with empty feed string",
			args: map[string]interface{}{
				"feed": "",
			},
			want: "",
		},
		{
			name: "with non-string feed",
			args: map[string]interface{}{
				"feed": 123,
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetFeedFromArgs(tt.args)
			if got != tt.want {
				t.Errorf("GetFeedFromArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}
