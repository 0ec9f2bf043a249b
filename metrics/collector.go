// go-multidrop
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-multidrop.
//
// go-multidrop is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-multidrop is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-multidrop; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package metrics exports transport and assembler counters to Prometheus.
package metrics

import (
	"sync"

	multidrop "github.com/ZaparooProject/go-multidrop"
	"github.com/ZaparooProject/go-multidrop/polling"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "multidrop"

type statDesc struct {
	desc  *prometheus.Desc
	value func(multidrop.Stats) float64
	kind  prometheus.ValueType
}

type assemblerDesc struct {
	desc  *prometheus.Desc
	value func(polling.Metrics) float64
	kind  prometheus.ValueType
}

func newDesc(subsystem, name, help string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, []string{"node"}, nil)
}

var (
	transportDescs = []statDesc{
		{newDesc("transport", "words_total", "Words passed to the ingestion path."),
			func(s multidrop.Stats) float64 { return float64(s.WordsIngested) }, prometheus.CounterValue},
		{newDesc("transport", "acks_total", "ACK responses returned."),
			func(s multidrop.Stats) float64 { return float64(s.FramesAcked) }, prometheus.CounterValue},
		{newDesc("transport", "nacks_total", "NACK responses returned."),
			func(s multidrop.Stats) float64 { return float64(s.FramesNacked) }, prometheus.CounterValue},
		{newDesc("transport", "buffer_overflows_total", "Frames abandoned because the accumulation buffer was full."),
			func(s multidrop.Stats) float64 { return float64(s.BufferOverflows) }, prometheus.CounterValue},
		{newDesc("transport", "malformed_frames_total", "Frames with an invalid length field."),
			func(s multidrop.Stats) float64 { return float64(s.FramesMalformed) }, prometheus.CounterValue},
		{newDesc("transport", "ignored_frames_total", "Frames addressed to other nodes."),
			func(s multidrop.Stats) float64 { return float64(s.FramesIgnored) }, prometheus.CounterValue},
		{newDesc("transport", "assembled_frames_total", "Frames decoded by the slow path."),
			func(s multidrop.Stats) float64 { return float64(s.FramesAssembled) }, prometheus.CounterValue},
		{newDesc("transport", "salvaged_frames_total", "Complete frames moved to the queue at a frame boundary."),
			func(s multidrop.Stats) float64 { return float64(s.FramesSalvaged) }, prometheus.CounterValue},
		{newDesc("transport", "queue_dropped_total", "Frames lost because the queue was full."),
			func(s multidrop.Stats) float64 { return float64(s.QueueDropped) }, prometheus.CounterValue},
		{newDesc("transport", "buffered_bytes", "Bytes accumulated for the frame in progress."),
			func(s multidrop.Stats) float64 { return float64(s.Buffered) }, prometheus.GaugeValue},
	}

	assemblerDescs = []assemblerDesc{
		{newDesc("assembler", "polls_total", "Slow path passes."),
			func(m polling.Metrics) float64 { return float64(m.PollCycles) }, prometheus.CounterValue},
		{newDesc("assembler", "frames_total", "Frames delivered to the application."),
			func(m polling.Metrics) float64 { return float64(m.FramesDelivered) }, prometheus.CounterValue},
		{newDesc("assembler", "invalid_frames_total", "Delivered frames with a checksum mismatch."),
			func(m polling.Metrics) float64 { return float64(m.InvalidFrames) }, prometheus.CounterValue},
		{newDesc("assembler", "callback_errors_total", "Frame callbacks that returned an error."),
			func(m polling.Metrics) float64 { return float64(m.CallbackErrors) }, prometheus.CounterValue},
		{newDesc("assembler", "stale_resets_total", "Partial frames discarded after the line went idle."),
			func(m polling.Metrics) float64 { return float64(m.StaleResets) }, prometheus.CounterValue},
		{newDesc("assembler", "last_poll_seconds", "Duration of the last slow path pass."),
			func(m polling.Metrics) float64 { return m.LastPollLatency.Seconds() }, prometheus.GaugeValue},
	}
)

type node struct {
	transport *multidrop.Transport
	assembler *polling.Assembler
	name      string
}

// Collector reads counters from registered nodes on every scrape
type Collector struct {
	nodes []node
	mu    sync.RWMutex
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

// Add exports t, and a when it is not nil, under the node label name
func (c *Collector) Add(name string, t *multidrop.Transport, a *polling.Assembler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes = append(c.nodes, node{name: name, transport: t, assembler: a})
}

// Describe implements prometheus.Collector
func (*Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range transportDescs {
		ch <- d.desc
	}
	for _, d := range assemblerDescs {
		ch <- d.desc
	}
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, n := range c.nodes {
		stats := n.transport.Stats()
		for _, d := range transportDescs {
			ch <- prometheus.MustNewConstMetric(d.desc, d.kind, d.value(stats), n.name)
		}
		if n.assembler == nil {
			continue
		}
		m := n.assembler.GetMetrics()
		for _, d := range assemblerDescs {
			ch <- prometheus.MustNewConstMetric(d.desc, d.kind, d.value(m), n.name)
		}
	}
}
