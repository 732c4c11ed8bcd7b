package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler(t *testing.T) {
	var (
		ctx  = context.Background()
		now  = time.Date(2019, 6, 1, 12, 0, 30, 0, time.UTC)
		s    = NewScheduler(NewService())
		ran  []string
		vals []uint64
	)
	s.Now = func() time.Time { return now }
	s.Done = func(j *Job, resp *Response, err error) {
		require.NoError(t, err)
		ran = append(ran, j.Id)
		vals = append(vals, uint64(*resp.Value))
	}

	require.NoError(t, s.Add(&Job{
		Id:       "every-minute",
		Schedule: "* * * * *",
		Request:  &Request{Composition: composition(t, "sum.json")},
	}))
	require.NoError(t, s.Add(&Job{
		Id:       "hourly",
		Schedule: "0 * * * *",
		Request:  &Request{Composition: composition(t, "distance.yaml")},
	}))
	require.Equal(t, JobExists, s.Add(&Job{
		Id:       "hourly",
		Schedule: "0 * * * *",
		Request:  &Request{},
	}))
	require.Error(t, s.Add(&Job{
		Id:       "bad",
		Schedule: "not a schedule",
		Request:  &Request{},
	}))

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	require.Equal(t, "every-minute", jobs[0].Id)
	require.Equal(t, time.Date(2019, 6, 1, 12, 1, 0, 0, time.UTC), jobs[0].Next)
	require.Equal(t, time.Date(2019, 6, 1, 13, 0, 0, 0, time.UTC), jobs[1].Next)

	require.Equal(t, 0, s.Tick(ctx))

	now = now.Add(time.Minute)
	require.Equal(t, 1, s.Tick(ctx))
	require.Equal(t, []string{"every-minute"}, ran)
	require.Equal(t, []uint64{12}, vals)
	require.Equal(t, time.Date(2019, 6, 1, 12, 2, 0, 0, time.UTC), s.Jobs()[0].Next)

	now = time.Date(2019, 6, 1, 13, 0, 0, 0, time.UTC)
	require.Equal(t, 2, s.Tick(ctx))
	require.Equal(t, []string{"every-minute", "every-minute", "hourly"}, ran)
	require.Equal(t, []uint64{12, 12, 5}, vals)

	require.NoError(t, s.Rem("hourly"))
	require.Equal(t, JobNotFound, s.Rem("hourly"))
	require.Len(t, s.Jobs(), 1)
}
