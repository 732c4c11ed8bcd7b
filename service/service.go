// Package service runs compositions on behalf of remote clients.
//
// A Request names what to run: a composition description, a script
// that builds a composition, or a stored image.  The Service builds
// a Runtime, walks it to completion (or to a limit), optionally
// saves the final state, and reports a Response.  Responses can also
// be published (to an MQTT broker, for example).
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/Comcast/morpha/comp"
	"github.com/Comcast/morpha/core"
	"github.com/Comcast/morpha/interpreters/goja"
	"github.com/Comcast/morpha/storage"
)

// Request describes a run.  Exactly one of Composition, Script, and
// Image should be given.
type Request struct {
	// Id is echoed in the Response.
	Id string `json:"id,omitempty"`

	Composition *comp.Composition `json:"composition,omitempty"`

	// Script is Goja source (a string or a map with "code" and
	// "requires").  See the goja package.
	Script interface{} `json:"script,omitempty"`

	// Params are given to the Script.
	Params map[string]interface{} `json:"params,omitempty"`

	// Image is the name of a stored image to resume.
	Image string `json:"image,omitempty"`

	// Entry optionally names where to start.  For an image,
	// the default is to resume where it left off.
	Entry string `json:"entry,omitempty"`

	// Size is the minimum arena size in Words.
	Size int `json:"size,omitempty"`

	// Limit is the maximum number of steps.  The default is
	// enough to finish.
	Limit int `json:"limit,omitempty"`

	// Trace requests the strides in the Response.
	Trace bool `json:"trace,omitempty"`

	// Save names the image that will hold the final state.
	Save string `json:"save,omitempty"`
}

// Response reports the outcome of a run.
type Response struct {
	Id string `json:"id,omitempty"`

	// Result is what the last step reported.
	Result core.Result `json:"result"`

	// Value is the Word at the returned Offset of a Halt.
	Value *core.Word `json:"value,omitempty"`

	StoppedBecause string `json:"stoppedBecause"`
	Steps          int    `json:"steps"`
	State          string `json:"state"`

	Names map[string]core.Offset `json:"names,omitempty"`

	Strides []*core.Stride `json:"strides,omitempty"`

	// Saved is the name of the image that was written, if any.
	Saved string `json:"saved,omitempty"`
}

// Publisher sends a Response somewhere.
type Publisher interface {
	Publish(ctx context.Context, resp *Response) error
}

// Service runs Requests.
type Service struct {
	// Storage holds images.  Required for Requests that use
	// Image or Save.
	Storage storage.Storage

	// Publisher, if not nil, gets every Response.
	Publisher Publisher

	// Builder runs Scripts.
	Builder *goja.Interpreter

	// BlockSize is the default arena size.
	BlockSize int

	// MaxSize, if positive, caps the arena size a Request can ask
	// for.
	MaxSize int

	Debug bool
}

// NewService makes a Service with in-memory storage.
func NewService() *Service {
	return &Service{
		Storage:   storage.NewMemStorage(),
		Builder:   goja.NewInterpreter(),
		BlockSize: core.DefaultBlock,
		MaxSize:   DefaultMaxSize,
	}
}

// DefaultMaxSize is the MaxSize NewService uses.
const DefaultMaxSize = 1 << 20

func (s *Service) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("Service."+format, args...)
	}
}

// BadRequest wraps errors that are the caller's fault.
type BadRequest struct {
	Err error
}

func (e *BadRequest) Error() string {
	return e.Err.Error()
}

func (e *BadRequest) Unwrap() error {
	return e.Err
}

func badRequest(format string, args ...interface{}) error {
	return &BadRequest{fmt.Errorf(format, args...)}
}

// Prepare builds the Runtime that the Request describes and seeks
// to its entry.
func (s *Service) Prepare(ctx context.Context, req *Request) (*core.Runtime, map[string]core.Offset, error) {
	given := 0
	if req.Composition != nil {
		given++
	}
	if req.Script != nil {
		given++
	}
	if req.Image != "" {
		given++
	}
	if given != 1 {
		return nil, nil, badRequest("need exactly one of composition, script, or image")
	}

	if 0 < s.MaxSize && s.MaxSize < req.Size {
		return nil, nil, badRequest("size %d exceeds %d", req.Size, s.MaxSize)
	}

	size := req.Size
	if size < s.BlockSize {
		size = s.BlockSize
	}

	var (
		rt    *core.Runtime
		names map[string]core.Offset
		entry = core.NoValue
	)

	switch {
	case req.Composition != nil:
		var (
			l   *comp.Layout
			err error
		)
		if rt, l, err = comp.Load(req.Composition, size); err != nil {
			return nil, nil, &BadRequest{err}
		}
		names = l.Offsets
		entry = l.Entry

	case req.Script != nil:
		if s.Builder == nil {
			return nil, nil, errors.New("no script interpreter")
		}
		rt = core.NewRuntime(make([]core.Word, size))
		exe, err := s.Builder.Exec(ctx, rt, req.Params, req.Script, nil)
		if err != nil {
			return nil, nil, &BadRequest{err}
		}
		names = exe.Names
		entry = exe.Entry

	default:
		if s.Storage == nil {
			return nil, nil, errors.New("no storage")
		}
		img, err := s.Storage.Get(ctx, req.Image)
		if err == storage.NotFound {
			return nil, nil, badRequest("no image named '%s'", req.Image)
		}
		if err != nil {
			return nil, nil, err
		}
		if rt, err = img.Runtime(size); err != nil {
			return nil, nil, err
		}
		names = img.Names
	}

	if req.Entry != "" {
		o, have := names[req.Entry]
		if !have {
			return nil, nil, badRequest("unknown entry '%s'", req.Entry)
		}
		entry = o
	}

	if entry != core.NoValue {
		if err := rt.Seek(entry).Err(); err != nil {
			return nil, nil, &BadRequest{err}
		}
	}

	return rt, names, nil
}

// Run prepares and walks the Runtime that the Request describes.
func (s *Service) Run(ctx context.Context, req *Request) (*Response, error) {
	return s.Stream(ctx, req, nil)
}

// Stream is Run with a function that sees each Stride as it's taken.
// An error from emit stops the walk.
func (s *Service) Stream(ctx context.Context, req *Request, emit func(*core.Stride) error) (*Response, error) {
	s.logf("Run %s", req.Id)

	rt, names, err := s.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		// Every step moves forward, so this many is enough.
		limit = rt.Size() + 1
	}

	walked, err := walk(ctx, rt, limit, emit)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Id:             req.Id,
		StoppedBecause: walked.StoppedBecause.String(),
		Steps:          len(walked.Strides),
		State:          rt.State().String(),
		Names:          names,
	}
	if last, ok := walked.Last(); ok {
		resp.Result = last
		if o := last.Offset(); last.Kind == core.Halt && 0 <= o && int(o) < rt.Size() {
			v := rt.Load(o)
			resp.Value = &v
		}
	}
	if req.Trace {
		resp.Strides = walked.Strides
	}

	if req.Save != "" {
		if s.Storage == nil {
			return nil, errors.New("no storage")
		}
		if err := s.Storage.Put(ctx, storage.NewImage(req.Save, rt, names)); err != nil {
			return nil, err
		}
		resp.Saved = req.Save
	}

	if s.Publisher != nil {
		if err := s.Publisher.Publish(ctx, resp); err != nil {
			// The run happened anyway.
			log.Printf("Service.Run publish error %v", err)
		}
	}

	s.logf("Run %s %s after %d steps", req.Id, resp.StoppedBecause, resp.Steps)

	return resp, nil
}

func walk(ctx context.Context, rt *core.Runtime, limit int, emit func(*core.Stride) error) (*core.Walked, error) {
	if emit == nil {
		return rt.Walk(ctx, &core.Control{Limit: limit})
	}

	walked := &core.Walked{
		StoppedBecause: core.Limited,
	}
	one := &core.Control{Limit: 1}
	for i := 0; i < limit; i++ {
		w, err := rt.Walk(ctx, one)
		if err != nil {
			return nil, err
		}
		walked.Strides = append(walked.Strides, w.Strides...)
		for _, stride := range w.Strides {
			if err := emit(stride); err != nil {
				return nil, err
			}
		}
		if w.StoppedBecause != core.Limited {
			walked.StoppedBecause = w.StoppedBecause
			break
		}
	}
	return walked, nil
}

// JS renders its argument as JSON or as a string indicating an error.
func JS(x interface{}) string {
	js, err := json.Marshal(&x)
	if err != nil {
		return fmt.Sprintf("%#v", x)
	}
	return string(js)
}
