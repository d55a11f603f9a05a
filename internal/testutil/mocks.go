package testutil

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/stackvity/tab2space/pkg/converter"
	"github.com/stackvity/tab2space/pkg/converter/encoding"
)

// Compile-time checks to ensure mocks implement the interfaces.
var (
	_ converter.Hooks          = (*MockHooks)(nil)
	_ encoding.EncodingHandler = (*MockEncodingHandler)(nil)
)

// MockHooks provides a mock implementation of the converter.Hooks interface.
// Hooks may be called from several workers at once; mock.Mock is safe for that.
type MockHooks struct {
	mock.Mock
}

// OnFileDiscovered mocks the OnFileDiscovered method.
func (m *MockHooks) OnFileDiscovered(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

// OnFileStatusUpdate mocks the OnFileStatusUpdate method.
func (m *MockHooks) OnFileStatusUpdate(path string, status converter.Status, message string, duration time.Duration) error {
	args := m.Called(path, status, message, duration)
	return args.Error(0)
}

// OnRunComplete mocks the OnRunComplete method.
func (m *MockHooks) OnRunComplete(report converter.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

// MockEncodingHandler provides a mock implementation of encoding.EncodingHandler.
type MockEncodingHandler struct {
	mock.Mock
}

// IsBinary mocks the IsBinary method.
func (m *MockEncodingHandler) IsBinary(content []byte) bool {
	args := m.Called(content)
	return args.Bool(0)
}

// Decode mocks the Decode method.
func (m *MockEncodingHandler) Decode(content []byte) (encoding.Decoded, error) {
	args := m.Called(content)
	decoded, _ := args.Get(0).(encoding.Decoded)
	return decoded, args.Error(1)
}

// Encode mocks the Encode method.
func (m *MockEncodingHandler) Encode(decoded encoding.Decoded) ([]byte, error) {
	args := m.Called(decoded)
	out, _ := args.Get(0).([]byte)
	return out, args.Error(1)
}

// Name mocks the Name method.
func (m *MockEncodingHandler) Name() string {
	args := m.Called()
	return args.String(0)
}
