package media

import (
	"bytes"
	"context"
	"testing"

	"github.com/jwstudio/portal/internal/store"
	"github.com/jwstudio/portal/internal/store/memory"
	"github.com/stretchr/testify/require"
)

// smallest valid PNG header is enough for content sniffing
var pngData = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

func TestChecksum(t *testing.T) {
	a := Checksum([]byte("hello"))
	require.NotEmpty(t, a)
	require.Equal(t, a, Checksum([]byte("hello")))
	require.NotEqual(t, a, Checksum([]byte("hello!")))
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewMediaStore("https://cdn.example.com"), 64)

	t.Run("image accepted", func(t *testing.T) {
		asset, err := svc.Upload(ctx, "../../hero.png", "portfolio", pngData)
		require.NoError(t, err)
		require.Equal(t, "hero.png", asset.Name)
		require.Equal(t, "https://cdn.example.com/portfolio/hero.png", asset.URL)
		require.Equal(t, Checksum(pngData), asset.Checksum)
		require.Equal(t, int64(len(pngData)), asset.Size)
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name string
			file string
			data []byte
		}{
			{name: "empty", file: "a.png", data: nil},
			{name: "too large", file: "a.png", data: append(pngData, bytes.Repeat([]byte{1}, 64)...)},
			{name: "not an image", file: "a.png", data: []byte("plain text pretending")},
			{name: "no name", file: "  ", data: pngData},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Upload(ctx, tt.file, "x", tt.data)
				require.ErrorIs(t, err, ErrInvalidUpload)
			})
		}
	})

	t.Run("list and delete", func(t *testing.T) {
		assets, err := svc.List(ctx, store.ListMediaOptions{Path: "/portfolio"})
		require.NoError(t, err)
		require.Len(t, assets, 1)

		require.NoError(t, svc.Delete(ctx, assets[0].ID))
		require.ErrorIs(t, svc.Delete(ctx, assets[0].ID), store.ErrMediaNotFound)
		require.ErrorIs(t, svc.Delete(ctx, ""), store.ErrMediaNotFound)

		_, err = svc.List(ctx, store.ListMediaOptions{Offset: -1})
		require.ErrorIs(t, err, ErrInvalidUpload)
	})
}
