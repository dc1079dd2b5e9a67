package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/agbru/compmgr/internal/catalog"
	apperrors "github.com/agbru/compmgr/internal/errors"
	"github.com/agbru/compmgr/internal/metrics"
	"github.com/agbru/compmgr/internal/worker"
	"github.com/agbru/compmgr/internal/worker/mocks"
)

func TestAddTaskPassesSpecToSpawner(t *testing.T) {
	ctrl := gomock.NewController(t)
	sp := mocks.NewMockSpawner(ctrl)
	h := mocks.NewMockHandle(ctrl)

	want := worker.Spec{Task: "t", Function: catalog.F2, Arg: 4}
	sp.EXPECT().Spawn(want).Return(h, nil).Times(1)
	h.EXPECT().PID().Return(4242).AnyTimes()

	o := New(sp, WithMetrics(metrics.New(nil)))
	_ = o.CreateGroup("g")
	if err := o.AddTask(context.Background(), "t", catalog.F2, 4); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if got, ok := o.Registry().Handle("t"); !ok || got != h {
		t.Error("dispatched handle not registered")
	}
}

func TestAddTaskDispatchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	sp := mocks.NewMockSpawner(ctrl)
	cause := errors.New("resource temporarily unavailable")
	sp.EXPECT().Spawn(gomock.Any()).Return(nil, cause)

	o := New(sp)
	_ = o.CreateGroup("g")
	err := o.AddTask(context.Background(), "t", catalog.F1, 1)

	var de apperrors.DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("AddTask() error = %v, want DispatchError", err)
	}
	if de.Task != "t" || !errors.Is(err, cause) {
		t.Errorf("DispatchError = %+v, want task t wrapping %v", de, cause)
	}
	if o.Registry().Len() != 0 {
		t.Error("failed dispatch left a registry entry")
	}
}

func TestPollDoesNotCollectRunningWorker(t *testing.T) {
	ctrl := gomock.NewController(t)
	sp := mocks.NewMockSpawner(ctrl)
	h := mocks.NewMockHandle(ctrl)
	running := make(chan struct{})

	sp.EXPECT().Spawn(gomock.Any()).Return(h, nil)
	h.EXPECT().PID().Return(7).AnyTimes()
	h.EXPECT().Done().Return((<-chan struct{})(running)).AnyTimes()
	h.EXPECT().Collect().Times(0)

	o := New(sp)
	_ = o.CreateGroup("g")
	_ = o.AddTask(context.Background(), "t", catalog.F3, 4)
	for range 3 {
		if _, err := o.PollStatus(context.Background()); err != nil {
			t.Fatalf("PollStatus() error = %v", err)
		}
	}
}
