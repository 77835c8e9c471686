package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestExpiringLinkValidTarget(t *testing.T) {
	imageID := uuid.New()
	thumbnailID := uuid.New()

	tests := []struct {
		name string
		link ExpiringLink
		want bool
	}{
		{"image only", ExpiringLink{ImageID: &imageID}, true},
		{"thumbnail only", ExpiringLink{ThumbnailID: &thumbnailID}, true},
		{"both set", ExpiringLink{ImageID: &imageID, ThumbnailID: &thumbnailID}, false},
		{"neither set", ExpiringLink{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.link.ValidTarget(); got != tt.want {
				t.Errorf("ValidTarget() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpiringLinkExpired(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	link := ExpiringLink{CreatedAt: created, TTLSeconds: 300}

	if link.Expired(created.Add(299 * time.Second)) {
		t.Error("link expired one second early")
	}
	if !link.Expired(created.Add(300 * time.Second)) {
		t.Error("link not expired at exactly its TTL")
	}
	if !link.Expired(created.Add(time.Hour)) {
		t.Error("link not expired long past its TTL")
	}
}

func TestValidLinkTTL(t *testing.T) {
	tests := []struct {
		ttl  int
		want bool
	}{
		{299, false},
		{300, true},
		{30000, true},
		{30001, false},
		{0, false},
		{-1, false},
	}

	for _, tt := range tests {
		if got := ValidLinkTTL(tt.ttl); got != tt.want {
			t.Errorf("ValidLinkTTL(%d) = %v, want %v", tt.ttl, got, tt.want)
		}
	}
}

func TestValidHeightPixels(t *testing.T) {
	tests := []struct {
		h    int
		want bool
	}{
		{24, false},
		{25, true},
		{8640, true},
		{8641, false},
		{0, false},
	}

	for _, tt := range tests {
		if got := ValidHeightPixels(tt.h); got != tt.want {
			t.Errorf("ValidHeightPixels(%d) = %v, want %v", tt.h, got, tt.want)
		}
	}
}

func TestTierAllowsHeight(t *testing.T) {
	tier := UserTier{
		Heights: []ThumbnailHeight{
			{ID: uuid.New(), HeightPixels: 200},
			{ID: uuid.New(), HeightPixels: 400},
		},
	}

	if !tier.AllowsHeight(200) {
		t.Error("tier should allow 200px")
	}
	if tier.AllowsHeight(800) {
		t.Error("tier should not allow 800px")
	}

	var empty UserTier
	if empty.AllowsHeight(200) {
		t.Error("empty tier should allow nothing")
	}
}
