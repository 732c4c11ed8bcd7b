// Package main is a demo HTTP service that runs compositions.
//
// See the service package for the API.
package main

import (
	"context"
	"flag"
	"io/ioutil"
	"log"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/Comcast/morpha/interpreters/goja"
	"github.com/Comcast/morpha/service"
	"github.com/Comcast/morpha/storage/bolt"

	"github.com/jsccast/yaml"
	"golang.org/x/net/netutil"
)

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.LUTC)
}

func main() {

	var (
		httpPort  = flag.String("h", ":8080", "HTTP service port")
		maxConns  = flag.Int("max-conns", 64, "maximum concurrent HTTP connections (0 for no limit)")
		storeFile = flag.String("p", "", "optional BoltDB filename for images")
		libDir    = flag.String("i", "", "optional directory for script libraries")
		blockSize = flag.Int("m", 0, "default arena size in words")
		maxSize   = flag.Int("max-size", service.DefaultMaxSize, "largest arena size a request can ask for (0 for no limit)")
		broker    = flag.String("mqtt", "", "optional MQTT broker (e.g. tcp://localhost:1883)")
		clientId  = flag.String("mqtt-id", "mservice", "MQTT client id")
		topic     = flag.String("mqtt-topic", "morpha/results", "MQTT topic for responses")
		qos       = flag.Int("mqtt-qos", 0, "MQTT QoS for responses")
		jobsFile  = flag.String("jobs", "", "optional YAML file of scheduled jobs")
		tick      = flag.Duration("tick", time.Second, "scheduler resolution")
		debug     = flag.Bool("d", false, "verbose logging")
	)

	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt)
		<-sigs
		log.Printf("main interrupted")
		cancel()
	}()

	s := service.NewService()
	s.Debug = *debug
	s.MaxSize = *maxSize
	if 0 < *blockSize {
		s.BlockSize = *blockSize
	}

	if *libDir != "" {
		s.Builder = &goja.Interpreter{
			LibraryProvider: goja.MakeFileLibraryProvider(*libDir),
		}
	}

	if *storeFile != "" {
		store, err := bolt.NewStorage(*storeFile)
		if err != nil {
			log.Fatal(err)
		}
		store.Debug = *debug
		if err = store.Open(ctx); err != nil {
			log.Fatal(err)
		}
		defer store.Close(ctx)
		s.Storage = store
	}

	if *broker != "" {
		client, err := service.ConnectMQTT(&service.MQTTOpts{
			Broker:    *broker,
			ClientId:  *clientId,
			KeepAlive: 10 * time.Second,
		})
		if err != nil {
			log.Fatal(err)
		}
		defer client.Disconnect(100)
		s.Publisher = &service.MQTTPublisher{
			Client: client,
			Topic:  *topic,
			QoS:    byte(*qos),
		}
	}

	if *jobsFile != "" {
		bs, err := ioutil.ReadFile(*jobsFile)
		if err != nil {
			log.Fatal(err)
		}
		var jobs []*service.Job
		if err = yaml.Unmarshal(bs, &jobs); err != nil {
			log.Fatalf("%s in %s", err, *jobsFile)
		}
		sched := service.NewScheduler(s)
		sched.Debug = *debug
		for _, j := range jobs {
			if err = sched.Add(j); err != nil {
				log.Fatalf("job %s: %s", j.Id, err)
			}
		}
		log.Printf("scheduled %d jobs", len(jobs))
		go sched.Run(ctx, *tick)
	}

	l, err := net.Listen("tcp", *httpPort)
	if err != nil {
		log.Fatal(err)
	}
	if 0 < *maxConns {
		l = netutil.LimitListener(l, *maxConns)
	}

	if err = s.Serve(ctx, l); err != nil {
		log.Fatal(err)
	}

	log.Printf("main terminating")
}
