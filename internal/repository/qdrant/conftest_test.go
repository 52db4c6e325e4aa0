package qdrant

import (
	"context"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

type fakePoints struct {
	resp    *pb.SearchResponse
	err     error
	lastReq *pb.SearchPoints
	lastMD  metadata.MD
}

func (f *fakePoints) Search(ctx context.Context, in *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	f.lastReq = in
	f.lastMD, _ = metadata.FromOutgoingContext(ctx)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp == nil {
		return &pb.SearchResponse{}, nil
	}
	return f.resp, nil
}

type fakeHealth struct {
	err error
}

func (f *fakeHealth) HealthCheck(_ context.Context, _ *pb.HealthCheckRequest, _ ...grpc.CallOption) (*pb.HealthCheckReply, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &pb.HealthCheckReply{Title: "qdrant", Version: "1.16.2"}, nil
}

func newTestRepo(t *testing.T, apiKey string) (*Repo, *fakePoints, *fakeHealth) {
	t.Helper()
	fp := &fakePoints{}
	fh := &fakeHealth{}
	return newRepo(fp, fh, "", apiKey), fp, fh
}

func str(s string) *pb.Value { return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}} }

func num(f float64) *pb.Value { return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: f}} }

func boolean(b bool) *pb.Value { return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: b}} }

func list(vs ...string) *pb.Value {
	values := make([]*pb.Value, len(vs))
	for i, v := range vs {
		values[i] = str(v)
	}
	return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: values}}}
}
