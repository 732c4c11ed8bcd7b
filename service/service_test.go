package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Comcast/morpha/comp"
	"github.com/Comcast/morpha/core"

	"github.com/stretchr/testify/require"
)

func composition(t *testing.T, name string) *comp.Composition {
	c, err := comp.ReadFile("../comp/testdata/" + name)
	require.NoError(t, err)
	return c
}

type collector struct {
	resps []*Response
}

func (c *collector) Publish(ctx context.Context, resp *Response) error {
	c.resps = append(c.resps, resp)
	return nil
}

func TestRunComposition(t *testing.T) {
	var (
		ctx = context.Background()
		s   = NewService()
		pub = &collector{}
	)
	s.Publisher = pub

	resp, err := s.Run(ctx, &Request{
		Id:          "sum",
		Composition: composition(t, "sum.json"),
		Trace:       true,
	})
	require.NoError(t, err)
	require.Equal(t, "Done", resp.StoppedBecause)
	require.Equal(t, "Halted", resp.State)
	require.Equal(t, core.Halt, resp.Result.Kind)
	require.NotNil(t, resp.Value)
	require.Equal(t, core.Word(12), *resp.Value)
	require.Equal(t, resp.Steps, len(resp.Strides))
	require.Contains(t, resp.Names, "abc")

	require.Len(t, pub.resps, 1)
	require.Equal(t, "sum", pub.resps[0].Id)
}

func TestRunScript(t *testing.T) {
	s := NewService()
	resp, err := s.Run(context.Background(), &Request{
		Script: `
var m = _.morph("SUB", _.params.a, _.params.b);
_.name("diff", m);
_.halt(_.result(m));
return m;
`,
		Params: map[string]interface{}{"a": 10, "b": 4},
	})
	require.NoError(t, err)
	require.Equal(t, "Done", resp.StoppedBecause)
	require.Equal(t, core.Word(6), *resp.Value)
	require.Nil(t, resp.Strides)
}

func TestRunSaveResume(t *testing.T) {
	var (
		ctx = context.Background()
		s   = NewService()
	)

	resp, err := s.Run(ctx, &Request{
		Composition: composition(t, "distance.yaml"),
		Limit:       2,
		Save:        "d",
	})
	require.NoError(t, err)
	require.Equal(t, "Limited", resp.StoppedBecause)
	require.Equal(t, 2, resp.Steps)
	require.Equal(t, "d", resp.Saved)
	require.Nil(t, resp.Value)

	resp, err = s.Run(ctx, &Request{
		Image: "d",
	})
	require.NoError(t, err)
	require.Equal(t, "Done", resp.StoppedBecause)
	require.Equal(t, core.Word(5), *resp.Value)

	// The image still holds the state at the time it was saved.
	resp, err = s.Run(ctx, &Request{
		Image: "d",
		Entry: "ab",
		Limit: 1,
	})
	require.NoError(t, err)
	require.Equal(t, "Limited", resp.StoppedBecause)
	require.Equal(t, core.OK, resp.Result.Kind)
}

func TestRunBadRequests(t *testing.T) {
	var (
		ctx = context.Background()
		s   = NewService()
		c   = composition(t, "sum.json")
	)

	for name, req := range map[string]*Request{
		"none":    {},
		"two":     {Composition: c, Image: "x"},
		"image":   {Image: "nope"},
		"entry":   {Composition: c, Entry: "nope"},
		"script":  {Script: "return _.morph('NOPE', 1);"},
		"cell":    {Composition: c, Entry: "xs"},
		"too big": {Composition: c, Size: DefaultMaxSize + 1},
		"bad ref": {Composition: &comp.Composition{Entries: []*comp.Entry{{Halt: &comp.Arg{Sym: "@nope"}}}}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Run(ctx, req)
			require.Error(t, err)
			var bad *BadRequest
			require.True(t, errors.As(err, &bad), "%v", err)
		})
	}
}

func TestStream(t *testing.T) {
	var (
		s       = NewService()
		strides []*core.Stride
	)
	resp, err := s.Stream(context.Background(), &Request{
		Composition: composition(t, "distance.yaml"),
	}, func(stride *core.Stride) error {
		strides = append(strides, stride)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "Done", resp.StoppedBecause)
	require.Len(t, strides, resp.Steps)
	require.Equal(t, core.Halt, strides[len(strides)-1].Result.Kind)

	stop := errors.New("stop")
	_, err = s.Stream(context.Background(), &Request{
		Composition: composition(t, "distance.yaml"),
	}, func(stride *core.Stride) error {
		return stop
	})
	require.Equal(t, stop, err)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewService().Run(ctx, &Request{
		Composition: composition(t, "sum.json"),
	})
	require.Equal(t, context.Canceled, err)
}
