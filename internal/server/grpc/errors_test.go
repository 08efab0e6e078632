package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/attendance/internal/common"
	"github.com/dmitrijs2005/attendance/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{common.NewValidationError("date", "must be today"), codes.InvalidArgument},
		{fmt.Errorf("load: %w", common.ErrorNotFound), codes.NotFound},
		{fmt.Errorf("%w: grace over", common.ErrLocked), codes.FailedPrecondition},
		{common.ErrConflictPending, codes.Aborted},
		{fmt.Errorf("%w: matcher 503", common.ErrTransient), codes.Unavailable},
		{common.ErrTokenExpired, codes.Unauthenticated},
		{fmt.Errorf("%w: bad sig", common.ErrInvalidToken), codes.Unauthenticated},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{errors.New("db error: connection reset"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(toStatus(tt.err)))
		})
	}
}

func TestToStatus_HidesInternalDetail(t *testing.T) {
	st, _ := status.FromError(toStatus(errors.New("db error: password=hunter2")))
	assert.Equal(t, "internal error", st.Message())
}

func TestAccessTokenInterceptor(t *testing.T) {
	s := NewGRPCServer("", logging.Nop{}, nil, testSecret)
	info := &grpc.UnaryServerInfo{FullMethod: fullMethod("ListSessions")}

	var seen string
	handler := func(ctx context.Context, _ any) (any, error) {
		seen = TeacherIDFromContext(ctx)
		return "ok", nil
	}

	t.Run("missing token", func(t *testing.T) {
		_, err := s.accessTokenInterceptor(context.Background(), nil, info, handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("valid token sets teacher", func(t *testing.T) {
		out := withToken(t, "teacher-3")
		md, _ := metadata.FromOutgoingContext(out)
		in := metadata.NewIncomingContext(context.Background(), md)

		resp, err := s.accessTokenInterceptor(in, nil, info, handler)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp)
		assert.Equal(t, "teacher-3", seen)
	})

	t.Run("other services pass", func(t *testing.T) {
		other := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
		_, err := s.accessTokenInterceptor(context.Background(), nil, other, handler)
		require.NoError(t, err)
	})
}

func TestCheck_ReportsJSONFieldName(t *testing.T) {
	s := NewGRPCServer("", logging.Nop{}, nil, "")
	err := s.check(&CreateSessionRequest{SectionID: "5b", Date: "2026-10-19", StartTime: "9am", EndTime: "10:00"})

	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "start_time", ve.Field)
}
