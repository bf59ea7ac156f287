package health

import (
	"context"
	"errors"
	"testing"
)

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockIndexChecker struct {
	err error
}

func (m *mockIndexChecker) Ready(_ context.Context) error { return m.err }

func TestCheck(t *testing.T) {
	down := errors.New("down")

	tests := []struct {
		name     string
		dbErr    error
		index    IndexChecker
		status   Status
		database CheckResult
		indexRes CheckResult
	}{
		{"all healthy", nil, &mockIndexChecker{}, Healthy, CheckOK, CheckOK},
		{"database down", down, &mockIndexChecker{}, Degraded, CheckError, CheckOK},
		{"index not ready", nil, &mockIndexChecker{err: down}, Degraded, CheckOK, CheckError},
		{"everything down", down, &mockIndexChecker{err: down}, Unhealthy, CheckError, CheckError},
		{"no index checker", nil, nil, Healthy, CheckOK, ""},
		{"no index checker, database down", down, nil, Unhealthy, CheckError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&mockDBPinger{err: tt.dbErr}, tt.index).Check(context.Background())

			if r.Status != tt.status {
				t.Errorf("status = %q, want %q", r.Status, tt.status)
			}
			if r.Checks["database"] != tt.database {
				t.Errorf("database = %q, want %q", r.Checks["database"], tt.database)
			}
			got, ok := r.Checks["index"]
			if tt.indexRes == "" {
				if ok {
					t.Error("index check should be absent without a checker")
				}
				return
			}
			if got != tt.indexRes {
				t.Errorf("index = %q, want %q", got, tt.indexRes)
			}
		})
	}
}
