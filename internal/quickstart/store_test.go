package quickstart_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	common "github.com/tizianocitro/blobquickstart/pkg"
	"github.com/tizianocitro/blobquickstart/pkg/filestorage"
)

// memStore is an in-memory FileStorage that records the operations it receives.
type memStore struct {
	mu         sync.Mutex
	containers map[string]map[string][]byte
	access     map[string]common.PublicAccess
	calls      []string
	// seed is added to every container on creation.
	seed   []string
	putErr error
}

func newMemStore() *memStore {
	return &memStore{
		containers: map[string]map[string][]byte{},
		access:     map[string]common.PublicAccess{},
	}
}

func (m *memStore) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *memStore) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *memStore) CreateContainer(_ context.Context, name string) error {
	m.record("CreateContainer")
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.containers[name]; ok {
		return fmt.Errorf("container %s already exists", name)
	}
	objs := map[string][]byte{}
	for _, s := range m.seed {
		objs[s] = []byte(s)
	}
	m.containers[name] = objs
	return nil
}

func (m *memStore) SetPublicAccess(_ context.Context, name string, access common.PublicAccess) error {
	m.record("SetPublicAccess")
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.containers[name]; !ok {
		return fmt.Errorf("container %s not found", name)
	}
	m.access[name] = access
	return nil
}

func (m *memStore) ContainerExists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.containers[name]
	return ok, nil
}

func (m *memStore) DeleteContainerIfExists(_ context.Context, name string) error {
	m.record("DeleteContainerIfExists")
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.containers, name)
	return nil
}

func (m *memStore) PutObject(_ context.Context, box, name string, r io.Reader) error {
	m.record("PutObject")
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	objs, ok := m.containers[box]
	if !ok {
		return fmt.Errorf("container %s not found", box)
	}
	objs[name] = data
	return nil
}

func (m *memStore) GetObject(_ context.Context, box, name string) (io.ReadCloser, error) {
	m.record("GetObject")
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.containers[box][name]
	if !ok {
		return nil, fmt.Errorf("blob %s/%s not found", box, name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) RemoveObject(_ context.Context, box, name string) error {
	m.record("RemoveObject")
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.containers[box], name)
	return nil
}

// ListObjectsPage uses the index of the next key as the continuation token.
func (m *memStore) ListObjectsPage(_ context.Context, box string, token *string, maxResults int32) (filestorage.ObjectPage, error) {
	m.record("ListObjectsPage")
	m.mu.Lock()
	defer m.mu.Unlock()
	objs, ok := m.containers[box]
	if !ok {
		return filestorage.ObjectPage{}, fmt.Errorf("container %s not found", box)
	}

	keys := make([]string, 0, len(objs))
	for k := range objs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if token != nil {
		var err error
		if start, err = strconv.Atoi(*token); err != nil {
			return filestorage.ObjectPage{}, err
		}
	}
	end := start + int(maxResults)
	if end > len(keys) {
		end = len(keys)
	}

	var page filestorage.ObjectPage
	for _, k := range keys[start:end] {
		page.Objects = append(page.Objects, filestorage.ObjectInfo{
			Name: k,
			URI:  "mem://" + box + "/" + k,
			Size: int64(len(objs[k])),
		})
	}
	if end < len(keys) {
		next := strconv.Itoa(end)
		page.ContinuationToken = &next
	}
	return page, nil
}

func (m *memStore) GetConnectionProperties() common.ConnectionProperties {
	return common.ConnectionProperties{}
}

// readerFunc lets a test run code at the moment the routine waits for input.
type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
