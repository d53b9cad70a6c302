package tokengrpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"
)

func TestMetadataTokenExtractor(t *testing.T) {
	tests := []struct {
		name    string
		ctx     context.Context
		want    string
		wantErr error
	}{
		{
			name: "no metadata",
			ctx:  context.Background(),
		},
		{
			name: "no authorization entry",
			ctx:  metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "42")),
		},
		{
			name: "bearer token",
			ctx:  metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer abc.def.ghi")),
			want: "abc.def.ghi",
		},
		{
			name: "scheme is case insensitive",
			ctx:  metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "bEaReR abc.def.ghi")),
			want: "abc.def.ghi",
		},
		{
			name:    "multiple entries",
			ctx:     metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer a", "authorization", "Bearer b")),
			wantErr: ErrMultipleAuthHeaders,
		},
		{
			name:    "scheme without token",
			ctx:     metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer")),
			wantErr: ErrInvalidAuthFormat,
		},
		{
			name:    "unsupported scheme",
			ctx:     metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic dXNlcjpwYXNz")),
			wantErr: ErrUnsupportedScheme,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MetadataTokenExtractor(tc.ctx)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
