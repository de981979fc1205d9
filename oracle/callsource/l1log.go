package callsource

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Log is the narrow subset of an on-chain event log the oracle needs: the
// emitting address, the raw topics and data, and enough position
// information to total-order events across blocks.
type Log struct {
	Address     [20]byte
	Topics      [][32]byte
	Data        []byte
	BlockNumber uint64
	TxHash      string
	Index       uint64
}

// FilterQuery narrows a log fetch to a block range, a set of emitting
// addresses, and (optionally) a required first topic.
type FilterQuery struct {
	FromBlock uint64
	ToBlock   uint64
	Addresses [][20]byte
	Topic     *[32]byte
}

// Etherman is the narrow RPC surface L1LogCallSource needs from an L1
// client: fetching logs for a range, and fetching the calldata of the
// transaction that emitted a given log.
type Etherman interface {
	FilterLogs(ctx context.Context, query FilterQuery) ([]Log, error)
	CalldataByTxHash(ctx context.Context, txHash string) ([]byte, error)
	LatestBlock(ctx context.Context) (uint64, error)
}

// L1LogCallSource derives invocation events from L1 logs matching a
// configured contract address and topic, fetching block ranges concurrently
// across a small worker pool but always handing events to callers one at a
// time in ascending (block_number, log_index) order.
type L1LogCallSource struct {
	etherMans   []Etherman
	ethermanMtx sync.Mutex
	ethermanIdx int

	addresses  [][20]byte
	topic      *[32]byte
	blockRange uint64
	workers    int
	retries    int

	buffered []Event
	nextLow  uint64
}

// L1LogCallSourceConfig carries the tunables for range-splitting and retry
// behavior; BlockRange and Workers default to sane values when zero.
type L1LogCallSourceConfig struct {
	Addresses  [][20]byte
	Topic      *[32]byte
	BlockRange uint64
	Workers    int
	Retries    int
	StartBlock uint64
}

// NewL1LogCallSource returns a source that begins scanning from
// cfg.StartBlock, round-robining requests across etherMans.
func NewL1LogCallSource(etherMans []Etherman, cfg L1LogCallSourceConfig) *L1LogCallSource {
	blockRange := cfg.BlockRange
	if blockRange == 0 {
		blockRange = 1000
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = 2
	}
	retries := cfg.Retries
	if retries == 0 {
		retries = 5
	}
	return &L1LogCallSource{
		etherMans:  etherMans,
		addresses:  cfg.Addresses,
		topic:      cfg.Topic,
		blockRange: blockRange,
		workers:    workers,
		retries:    retries,
		nextLow:    cfg.StartBlock,
	}
}

func (s *L1LogCallSource) getNextEtherman() Etherman {
	s.ethermanMtx.Lock()
	defer s.ethermanMtx.Unlock()
	if s.ethermanIdx >= len(s.etherMans) {
		s.ethermanIdx = 0
	}
	em := s.etherMans[s.ethermanIdx]
	s.ethermanIdx++
	return em
}

// Next returns the next event in ascending order, fetching and refilling
// its internal buffer up through latestL1Block when it runs dry. ok is
// false with a nil error when the source has caught up to latestL1Block
// with nothing new to report.
func (s *L1LogCallSource) Next(ctx context.Context, latestL1Block uint64) (Event, bool, error) {
	if len(s.buffered) == 0 {
		if err := s.fill(ctx, latestL1Block); err != nil {
			return Event{}, false, err
		}
	}
	if len(s.buffered) == 0 {
		return Event{}, false, nil
	}
	e := s.buffered[0]
	s.buffered = s.buffered[1:]
	return e, true, nil
}

type fetchJob struct {
	from uint64
	to   uint64
}

type jobResult struct {
	logs []Log
	err  error
}

func (s *L1LogCallSource) fill(ctx context.Context, latestL1Block uint64) error {
	if s.nextLow > latestL1Block {
		return nil
	}

	var jobs []fetchJob
	low := s.nextLow
	for low <= latestL1Block {
		high := low + s.blockRange
		if high > latestL1Block {
			high = latestL1Block
		}
		jobs = append(jobs, fetchJob{from: low, to: high})
		if high == latestL1Block {
			break
		}
		low = high + 1
	}

	jobCh := make(chan fetchJob, len(jobs))
	resultCh := make(chan jobResult, len(jobs))
	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.fetchWorker(ctx, jobCh, resultCh)
		}()
	}
	wg.Wait()
	close(resultCh)

	var logs []Log
	for res := range resultCh {
		if res.err != nil {
			return res.err
		}
		logs = append(logs, res.logs...)
	}

	events := make([]Event, 0, len(logs))
	for _, l := range logs {
		calldata, err := s.getNextEtherman().CalldataByTxHash(ctx, l.TxHash)
		if err != nil {
			return fmt.Errorf("callsource: fetch calldata for %s: %w", l.TxHash, err)
		}
		payload, err := ExtractPayload(calldata)
		if err != nil {
			return fmt.Errorf("callsource: extract payload for %s: %w", l.TxHash, err)
		}
		events = append(events, Event{
			TxHash:      l.TxHash,
			Submitter:   topicToAddress(l.Topics),
			Payload:     payload,
			BlockNumber: l.BlockNumber,
			LogIndex:    l.Index,
		})
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		return events[i].LogIndex < events[j].LogIndex
	})

	s.buffered = events
	s.nextLow = latestL1Block + 1
	return nil
}

func (s *L1LogCallSource) fetchWorker(ctx context.Context, jobs <-chan fetchJob, results chan<- jobResult) {
	for j := range jobs {
		query := FilterQuery{FromBlock: j.from, ToBlock: j.to, Addresses: s.addresses, Topic: s.topic}

		var logs []Log
		var err error
		for attempt := 0; ; attempt++ {
			em := s.getNextEtherman()
			logs, err = em.FilterLogs(ctx, query)
			if err == nil {
				break
			}
			if attempt >= s.retries {
				results <- jobResult{err: err}
				return
			}
			select {
			case <-ctx.Done():
				results <- jobResult{err: ctx.Err()}
				return
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
		}
		results <- jobResult{logs: logs}
	}
}

// topicToAddress recovers the submitting address from an indexed log topic
// (the low 20 bytes of the second topic, the common ABI encoding for an
// indexed address parameter); it returns the zero address if absent.
func topicToAddress(topics [][32]byte) [20]byte {
	var addr [20]byte
	if len(topics) < 2 {
		return addr
	}
	copy(addr[:], topics[1][12:])
	return addr
}
