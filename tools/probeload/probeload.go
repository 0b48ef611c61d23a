// probeload runs a headless progressive load against a running
// lodviewer server and prints per-level timings. Handy for checking
// time-to-first-view without a browser.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/meshpipe/lodviewer/loader"
)

type byteSink struct {
	levels []int64
}

func (bs *byteSink) Show(index int, location string, content io.Reader) error {
	n, err := io.Copy(ioutil.Discard, content)
	if err != nil {
		return err
	}
	for len(bs.levels) <= index {
		bs.levels = append(bs.levels, 0)
	}
	bs.levels[index] = n
	return nil
}

type printEvents struct{}

func (printEvents) LevelState(index int, state loader.State) {
	fmt.Printf("level %d: %s\n", index, state)
}

func (printEvents) FirstView(elapsed time.Duration) {
	fmt.Printf("first usable view after %v\n", elapsed)
}

func (printEvents) Complete(elapsed time.Duration) {
	fmt.Printf("session complete after %v\n", elapsed)
}

// fetchModelInfo asks the server for the ordered variant paths.
func fetchModelInfo(base, id string) ([]string, error) {
	resp, err := http.Get(strings.TrimRight(base, "/") + "/json/models/" + id)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("Server returned %s", resp.Status)
	}

	var info struct {
		Variants []struct {
			Path string `json:"path"`
		} `json:"variants"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Wrap(err, "Bad model info")
	}

	paths := make([]string, 0, len(info.Variants))
	for _, v := range info.Variants {
		paths = append(paths, v.Path)
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("Model %q has no variants", id)
	}
	return paths, nil
}

func main() {
	var base, id string
	flag.StringVar(&base, "server", "http://localhost:8000", "lodviewer server address")
	flag.StringVar(&id, "id", "", "Asset id to load")
	flag.Parse()

	if id == "" {
		flag.PrintDefaults()
		return
	}

	fetcher := loader.NewHTTPFetcher(base)
	paths, err := fetchModelInfo(base, id)
	if err != nil {
		log.Fatal(err)
	}

	sink := &byteSink{}
	viewer := loader.NewViewer(fetcher, sink)

	session, err := viewer.Begin(context.Background(), paths, printEvents{})
	if err != nil {
		log.Fatal(err)
	}
	<-session.Done()

	for i, n := range sink.levels {
		fmt.Printf("level %d: %d bytes\n", i, n)
	}
}
