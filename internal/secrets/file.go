package secrets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"filippo.io/age"
)

// File keeps secrets as a JSON object sealed with age to a local X25519
// identity. The identity is generated on first write.
type File struct {
	mu       sync.Mutex
	path     string
	identity string
}

// NewFile returns a store sealing to path with the identity at identityPath.
func NewFile(path, identityPath string) *File {
	return &File{path: path, identity: identityPath}
}

func (f *File) Set(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	id, err := f.loadIdentity(true)
	if err != nil {
		return err
	}
	values, err := f.read(id)
	if err != nil {
		return err
	}
	values[key] = value
	return f.write(id, values)
}

func (f *File) Get(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	id, err := f.loadIdentity(false)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	values, err := f.read(id)
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return value, nil
}

func (f *File) Delete(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	id, err := f.loadIdentity(false)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return err
	}
	values, err := f.read(id)
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	delete(values, key)
	return f.write(id, values)
}

func (f *File) loadIdentity(create bool) (*age.X25519Identity, error) {
	raw, err := os.ReadFile(f.identity)
	if err == nil {
		id, err := age.ParseX25519Identity(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("parse identity %s: %w", f.identity, err)
		}
		return id, nil
	}
	if !errors.Is(err, os.ErrNotExist) || !create {
		return nil, err
	}

	id, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}
	if err := writeFileAtomic(f.identity, []byte(id.String()+"\n")); err != nil {
		return nil, fmt.Errorf("write identity: %w", err)
	}
	return id, nil
}

func (f *File) read(id *age.X25519Identity) (map[string]string, error) {
	sealed, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read secrets: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(sealed), id)
	if err != nil {
		return nil, fmt.Errorf("decrypt secrets: %w", err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read decrypted secrets: %w", err)
	}
	values := map[string]string{}
	if len(plain) > 0 {
		if err := json.Unmarshal(plain, &values); err != nil {
			return nil, fmt.Errorf("decode secrets: %w", err)
		}
	}
	return values, nil
}

func (f *File) write(id *age.X25519Identity, values map[string]string) error {
	plain, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode secrets: %w", err)
	}
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, id.Recipient())
	if err != nil {
		return fmt.Errorf("create encryptor: %w", err)
	}
	if _, err := w.Write(plain); err != nil {
		return fmt.Errorf("encrypt secrets: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize secrets: %w", err)
	}
	if err := writeFileAtomic(f.path, buf.Bytes()); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
