package controller

import "testing"

func TestResolveThumbnailListOutcome(t *testing.T) {
	tests := []struct {
		name       string
		uploads    int
		thumbnails int
		want       listOutcome
	}{
		{"no uploads at all", 0, 0, listNoUploads},
		{"uploads but nothing materialized yet", 3, 0, listAwaitingRepair},
		{"one upload awaiting pipeline", 1, 0, listAwaitingRepair},
		{"thumbnails ready", 3, 3, listReady},
		{"partial materialization still lists", 3, 1, listReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveThumbnailListOutcome(tt.uploads, tt.thumbnails)
			if got != tt.want {
				t.Errorf("resolveThumbnailListOutcome(%d, %d) = %d, want %d", tt.uploads, tt.thumbnails, got, tt.want)
			}
		})
	}
}
