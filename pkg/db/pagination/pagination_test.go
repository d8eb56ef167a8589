package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      Page
		want    Page
		wantErr bool
	}{
		{name: "defaults", in: Page{}, want: Page{Skip: 0, Limit: 20}},
		{name: "explicit", in: Page{Skip: 5, Limit: 100}, want: Page{Skip: 5, Limit: 100}},
		{name: "negative skip", in: Page{Skip: -1, Limit: 10}, wantErr: true},
		{name: "limit over max", in: Page{Limit: 101}, wantErr: true},
		{name: "negative limit", in: Page{Limit: -3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize(DefaultLimit, MaxLimit)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPagination)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWindowAndTrim(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page := Page{Skip: 1, Limit: 2}
	got, info := Trim(Window(items, page), page)
	assert.Equal(t, []int{2, 3}, got)
	assert.True(t, info.HasMore)

	page = Page{Skip: 3, Limit: 5}
	got, info = Trim(Window(items, page), page)
	assert.Equal(t, []int{4, 5}, got)
	assert.False(t, info.HasMore)

	assert.Nil(t, Window(items, Page{Skip: 10, Limit: 1}))
}
