package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/Comcast/morpha/comp"
	"github.com/Comcast/morpha/core"
	"github.com/Comcast/morpha/storage"
	"github.com/Comcast/morpha/tools"
)

func complain(w http.ResponseWriter, x interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%s}`+"\n", JS(fmt.Sprintf("%s", x)))
}

func status(err error) int {
	var bad *BadRequest
	if errors.As(err, &bad) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func reply(w http.ResponseWriter, x interface{}) {
	js, err := json.Marshal(&x)
	if err != nil {
		complain(w, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Printf("Service.HTTP warning on Write(): %v", err)
	}
}

func readBody(r *http.Request) ([]byte, error) {
	bs, err := ioutil.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if err := r.Body.Close(); err != nil {
		log.Printf("Service.HTTP warning on Body.Close(): %v", err)
	}
	return bs, nil
}

// readComposition parses a composition (YAML or JSON) from the body
// and assembles it.
func (s *Service) readComposition(r *http.Request) (*comp.Composition, *comp.Layout, *core.Runtime, error) {
	bs, err := readBody(r)
	if err != nil {
		return nil, nil, nil, err
	}
	c, err := comp.Parse(bs)
	if err != nil {
		return nil, nil, nil, &BadRequest{err}
	}
	rt, l, err := comp.Load(c, 0)
	if err != nil {
		return nil, nil, nil, &BadRequest{err}
	}
	return c, l, rt, nil
}

// Handler makes the HTTP API:
//
//	POST   /run           Request in, Response out
//	GET    /images        names of stored images
//	GET    /images/NAME   a stored image
//	DELETE /images/NAME
//	POST   /analyze       composition in, tools.Analysis out (?format=yaml)
//	POST   /listing       composition in, text listing out
//	POST   /html          composition in, HTML page out (?graph=true)
//	GET    /ws            Websockets (see WebSockets)
func (s *Service) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/run", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			complain(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		bs, err := readBody(r)
		if err != nil {
			complain(w, err, http.StatusBadRequest)
			return
		}
		var req Request
		if err := json.Unmarshal(bs, &req); err != nil {
			complain(w, err, http.StatusBadRequest)
			return
		}
		resp, err := s.Run(r.Context(), &req)
		if err != nil {
			complain(w, err, status(err))
			return
		}
		reply(w, resp)
	}))

	mux.Handle("/images", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Storage == nil {
			complain(w, "no storage", http.StatusNotImplemented)
			return
		}
		names, err := s.Storage.List(r.Context())
		if err != nil {
			complain(w, err, http.StatusInternalServerError)
			return
		}
		if names == nil {
			names = []string{}
		}
		reply(w, names)
	}))

	mux.Handle("/images/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Storage == nil {
			complain(w, "no storage", http.StatusNotImplemented)
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/images/")
		if name == "" {
			complain(w, "no image name", http.StatusBadRequest)
			return
		}
		switch r.Method {
		case http.MethodGet:
			img, err := s.Storage.Get(r.Context(), name)
			if err == storage.NotFound {
				complain(w, err, http.StatusNotFound)
				return
			}
			if err != nil {
				complain(w, err, http.StatusInternalServerError)
				return
			}
			reply(w, img)
		case http.MethodDelete:
			if err := s.Storage.Rem(r.Context(), name); err != nil {
				complain(w, err, http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			complain(w, "GET or DELETE", http.StatusMethodNotAllowed)
		}
	}))

	mux.Handle("/analyze", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, l, rt, err := s.readComposition(r)
		if err != nil {
			complain(w, err, status(err))
			return
		}
		a, err := tools.Analyze(rt, l.Entry, l.Offsets)
		if err != nil {
			complain(w, err, http.StatusInternalServerError)
			return
		}
		if r.URL.Query().Get("format") == "yaml" {
			bs, err := a.YAML()
			if err != nil {
				complain(w, err, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/yaml")
			w.Write(bs)
			return
		}
		reply(w, a)
	}))

	mux.Handle("/listing", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, l, rt, err := s.readComposition(r)
		if err != nil {
			complain(w, err, status(err))
			return
		}
		lines, err := tools.Listing(rt, l.Offsets)
		if err != nil {
			complain(w, err, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		if err := tools.WriteListing(w, lines); err != nil {
			log.Printf("Service.HTTP warning on WriteListing: %v", err)
		}
	}))

	mux.Handle("/html", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, l, rt, err := s.readComposition(r)
		if err != nil {
			complain(w, err, status(err))
			return
		}
		graph := r.URL.Query().Get("graph") == "true"
		w.Header().Set("Content-Type", "text/html")
		if err := tools.RenderCompositionPage(c, l, rt, w, nil, graph); err != nil {
			log.Printf("Service.HTTP warning on RenderCompositionPage: %v", err)
		}
	}))

	mux.Handle("/ws", s.WebSockets(ctx))

	return mux
}

// Serve serves the Handler on the given listener until the context
// is done.
func (s *Service) Serve(ctx context.Context, l net.Listener) error {
	log.Printf("Service.Serve starting on %s", l.Addr())

	server := &http.Server{
		Handler: s.Handler(ctx),
	}

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	if err := server.Serve(l); err != http.ErrServerClosed {
		return err
	}
	return nil
}
