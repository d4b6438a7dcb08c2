package runtimelib

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/lone-wolf-akela/foxlox/internal/value"
)

// conns and protoRegistry hold gRPC connections and parsed .proto
// method descriptors behind int64/string handles, the same
// handle-table idiom sql.go uses (§3.6 names no opaque handle kind).
var (
	connsMu    sync.Mutex
	conns      = map[int64]*grpc.ClientConn{}
	nextConnID int64

	protoRegistryMu sync.RWMutex
	protoRegistry   = map[string]*desc.FileDescriptor{}
)

func rpcLib() map[string]value.Value {
	return map[string]value.Value{
		"dial": fn("fox.rpc.dial", 1, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsString() {
				ctx.Raise("rpc.dial: address must be a string")
			}
			conn, err := grpc.NewClient(args[0].AsString().Bytes, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				ctx.Raise("rpc.dial: %v", err)
			}
			connsMu.Lock()
			nextConnID++
			id := nextConnID
			conns[id] = conn
			connsMu.Unlock()
			return value.Int(id)
		}),
		"load_proto": fn("fox.rpc.load_proto", 1, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsString() {
				ctx.Raise("rpc.load_proto: path must be a string")
			}
			parser := protoparse.Parser{ImportPaths: []string{"."}}
			fds, err := parser.ParseFiles(args[0].AsString().Bytes)
			if err != nil {
				ctx.Raise("rpc.load_proto: %v", err)
			}
			protoRegistryMu.Lock()
			for _, fd := range fds {
				protoRegistry[fd.GetName()] = fd
			}
			protoRegistryMu.Unlock()
			return value.Nil()
		}),
		// call invokes a fully-qualified unary method ("pkg.Service/Method")
		// previously resolved via a load_proto'd descriptor, building its
		// request/response as dynamic.Message values rather than
		// compiled stubs — the schema-less shape a scripting language
		// calling an arbitrary service needs (§11 fox.rpc).
		"call": fn("fox.rpc.call", 3, func(ctx value.HostContext, args []value.Value) value.Value {
			if !args[0].IsInt() || !args[1].IsString() || !args[2].IsDict() {
				ctx.Raise("rpc.call: expected (handle, method, payload dict)")
			}
			connsMu.Lock()
			conn, ok := conns[args[0].AsInt()]
			connsMu.Unlock()
			if !ok {
				ctx.Raise("rpc.call: no open connection for handle %d", args[0].AsInt())
			}

			methodPath := args[1].AsString().Bytes
			md, err := findMethodDescriptor(methodPath)
			if err != nil {
				ctx.Raise("rpc.call: %v", err)
			}

			reqMsg := dynamic.NewMessage(md.GetInputType())
			if err := dictToDynamicMessage(args[2], reqMsg); err != nil {
				ctx.Raise("rpc.call: building request: %v", err)
			}
			respMsg := dynamic.NewMessage(md.GetOutputType())

			invokePath := methodPath
			if invokePath[0] != '/' {
				invokePath = "/" + invokePath
			}
			if err := conn.Invoke(context.Background(), invokePath, reqMsg, respMsg); err != nil {
				ctx.Raise("rpc.call: %v", err)
			}
			return dynamicMessageToDict(ctx, respMsg)
		}),
	}
}

func findMethodDescriptor(methodPath string) (*desc.MethodDescriptor, error) {
	serviceName, methodName, err := splitMethodPath(methodPath)
	if err != nil {
		return nil, err
	}
	protoRegistryMu.RLock()
	defer protoRegistryMu.RUnlock()
	for _, fd := range protoRegistry {
		if svc := fd.FindService(serviceName); svc != nil {
			if m := svc.FindMethodByName(methodName); m != nil {
				return m, nil
			}
		}
	}
	return nil, fmt.Errorf("method %s not found in any loaded .proto file", methodPath)
}

func splitMethodPath(methodPath string) (service, method string, err error) {
	path := methodPath
	if len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	slash := -1
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			slash = i
			break
		}
	}
	if slash < 0 {
		return "", "", fmt.Errorf("method path %q must be \"package.Service/Method\"", methodPath)
	}
	return path[:slash], path[slash+1:], nil
}

func dictToDynamicMessage(v value.Value, msg *dynamic.Message) error {
	d := v.AsDict()
	for k, val := range d.Entries {
		if !k.IsString() {
			continue
		}
		field := msg.GetMessageDescriptor().FindFieldByName(k.AsString().Bytes)
		if field == nil {
			continue
		}
		if err := msg.TrySetField(field, toGo(val)); err != nil {
			return err
		}
	}
	return nil
}

func dynamicMessageToDict(ctx value.HostContext, msg *dynamic.Message) value.Value {
	dict := ctx.NewDict()
	for _, field := range msg.GetMessageDescriptor().GetFields() {
		dict.Entries[value.FromObj(ctx.Intern(field.GetName()))] = fromGo(ctx, msg.GetField(field))
	}
	return value.FromObj(dict)
}
