// Package file implements a file-based WebRTC signal for tests. Peers
// exchange SDP offers and answers by reading and writing files in a shared
// directory.
package file

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pion/webrtc/v2"

	"github.com/waggleworks/waggle/src/net/signal"
)

// TestSignal implements the Signal interface by reading and writing files on
// disk. It is only used for testing.
type TestSignal struct {
	id       string
	consumer chan signal.OfferPromise
	dir      string
	stopCh   chan struct{}
}

// NewTestSignal instantiates a TestSignal
func NewTestSignal(id string, dir string) *TestSignal {
	return &TestSignal{
		id:       id,
		consumer: make(chan signal.OfferPromise),
		dir:      dir,
		stopCh:   make(chan struct{}),
	}
}

// ID implements the Signal interface. It returns the identifier used to
// address this end of the connection.
func (ts *TestSignal) ID() string {
	return ts.id
}

// Listen implements the Signal interface. It scans the test directory for
// offers and submits new offers to the consumer channel. Filenames are of the
// form <offerer>_<answerer>_offer.sdp or <offerer>_<answerer>_answer.sdp. So
// for example if alice makes an offer to bob, she will write the offer in a
// file called alice_bob_offer.sdp and bob will answer in alice_bob_answer.sdp
func (ts *TestSignal) Listen() error {

	// processedOffers keeps track of the offers that have already been
	// processed
	processedOffers := make(map[string]bool)

	for {
		select {
		case <-ts.stopCh:
			return nil
		default:
		}

		// open the directory where sdp files are dumped
		sdpDir, err := os.Open(ts.dir)
		if err != nil {
			return err
		}

		//scan directory
		fileNames, err := sdpDir.Readdirnames(0)
		if err != nil {
			return err
		}

		for _, fileName := range fileNames {
			s := strings.Split(fileName, "_")

			if len(s) != 3 ||
				s[1] != ts.id ||
				s[2] != "offer.sdp" {
				continue
			}

			if _, ok := processedOffers[s[0]]; ok {
				continue
			}

			offer, err := readSDP(filepath.Join(ts.dir, fileName))
			if err != nil {
				return err
			}

			if offer != nil {
				respCh := make(chan signal.OfferPromiseResponse, 1)

				promise := signal.OfferPromise{
					From:     s[0],
					Offer:    *offer,
					RespChan: respCh,
				}

				ts.consumer <- promise

				// Wait for response
				resp := <-respCh
				if resp.Error == nil {
					answerFilename := fmt.Sprintf("%s_%s_answer.sdp", s[0], s[1])
					writeSDP(*resp.Answer, filepath.Join(ts.dir, answerFilename))
				}

				processedOffers[s[0]] = true
			}
		}

		time.Sleep(100 * time.Millisecond)
	}
}

// Consumer implements the Signal interface
func (ts *TestSignal) Consumer() <-chan signal.OfferPromise {
	return ts.consumer
}

// Offer implements the Signal interface
func (ts *TestSignal) Offer(target string, offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {

	offerFilename := fmt.Sprintf("%s_%s_offer.sdp", ts.id, target)
	err := writeSDP(offer, filepath.Join(ts.dir, offerFilename))
	if err != nil {
		return nil, err
	}

	answerFilename := fmt.Sprintf("%s_%s_answer.sdp", ts.id, target)
	answerFile := filepath.Join(ts.dir, answerFilename)

	timeout := time.After(5 * time.Second)
	for {
		select {
		case <-timeout:
			err := fmt.Errorf("Timeout waiting for SDP answer")
			return nil, err
		default:
			answer, err := readSDP(answerFile)
			if err != nil {
				return nil, err
			}

			if answer != nil {
				return answer, nil
			}

			time.Sleep(100 * time.Millisecond)
		}
	}
}

// Close implements the Signal interface
func (ts *TestSignal) Close() error {
	close(ts.stopCh)
	return nil
}

func readSDP(file string) (*webrtc.SessionDescription, error) {
	if _, err := os.Stat(file); os.IsNotExist(err) {
		return nil, nil
	}

	fileContent, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}

	res := webrtc.SessionDescription{}

	err = json.Unmarshal(fileContent, &res)
	if err != nil {
		return nil, err
	}

	return &res, nil
}

func writeSDP(sdp webrtc.SessionDescription, file string) error {
	raw, err := json.Marshal(sdp)
	if err != nil {
		return err
	}

	err = ioutil.WriteFile(file, raw, 0644)
	if err != nil {
		return err
	}

	return nil
}
