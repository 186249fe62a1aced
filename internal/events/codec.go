package events

import (
	"fmt"
	"strconv"

	"OFTester/internal/model"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Encode serializes an event as a protobuf Struct. The dpid travels as a
// decimal string since Struct numbers are doubles.
func Encode(ev model.Event) ([]byte, error) {
	ts := timestamppb.New(ev.At)
	fields := map[string]interface{}{
		"run_id":      ev.RunID,
		"scenario":    ev.Scenario,
		"state":       ev.State,
		"packet_size": ev.PacketSize,
		"dpid":        strconv.FormatUint(ev.DPID, 10),
		"at_seconds":  ts.GetSeconds(),
		"at_nanos":    ts.GetNanos(),
	}
	if ev.Err != "" {
		fields["error"] = ev.Err
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to build event payload: %w", err)
	}
	return proto.Marshal(msg)
}

// Decode parses a payload produced by Encode.
func Decode(data []byte) (model.Event, error) {
	var msg structpb.Struct
	if err := proto.Unmarshal(data, &msg); err != nil {
		return model.Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	f := msg.GetFields()

	dpid, err := strconv.ParseUint(f["dpid"].GetStringValue(), 10, 64)
	if err != nil {
		return model.Event{}, fmt.Errorf("invalid event dpid: %w", err)
	}
	ts := &timestamppb.Timestamp{
		Seconds: int64(f["at_seconds"].GetNumberValue()),
		Nanos:   int32(f["at_nanos"].GetNumberValue()),
	}
	if err := ts.CheckValid(); err != nil {
		return model.Event{}, fmt.Errorf("invalid event timestamp: %w", err)
	}
	return model.Event{
		RunID:      f["run_id"].GetStringValue(),
		Scenario:   f["scenario"].GetStringValue(),
		State:      f["state"].GetStringValue(),
		PacketSize: int(f["packet_size"].GetNumberValue()),
		DPID:       dpid,
		At:         ts.AsTime(),
		Err:        f["error"].GetStringValue(),
	}, nil
}
