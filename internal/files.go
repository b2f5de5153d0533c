package internal

import (
	"encoding/binary"
	"io"
	"log"
	"os"
)

// FileOpen is os.Open with panics in place of errors
func FileOpen(name string) *os.File {
	file, err := os.Open(name)
	if err != nil {
		log.Panic(err)
	}
	return file
}

// FileCreate is os.Create with panics in place of errors
func FileCreate(name string) *os.File {
	file, err := os.Create(name)
	if err != nil {
		log.Panic(err)
	}
	return file
}

// FileExists tells whether a file of the given name exists
func FileExists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// Close is file.Close with panics in place of errors
func Close(file io.Closer) {
	if err := file.Close(); err != nil {
		log.Panic(err)
	}
}

// ReadFull is io.ReadFull with panics in place of errors
func ReadFull(reader io.Reader, buf []byte) {
	if _, err := io.ReadFull(reader, buf); err != nil {
		log.Panic(err)
	}
}

// BinaryRead is binary.Read for little-endian data with panics in
// place of errors
func BinaryRead(reader io.Reader, data interface{}) {
	if err := binary.Read(reader, binary.LittleEndian, data); err != nil {
		log.Panic(err)
	}
}

// WriteString is writer.WriteString with panics in place of errors
func WriteString(writer io.StringWriter, s string) int {
	n, err := writer.WriteString(s)
	if err != nil {
		log.Panic(err)
	}
	return n
}

// CopyFile copies the contents of the named source file to the named
// destination file, with panics in place of errors.
func CopyFile(src, dst string) {
	in := FileOpen(src)
	defer Close(in)
	out := FileCreate(dst)
	defer Close(out)
	if _, err := io.Copy(out, in); err != nil {
		log.Panic(err)
	}
}
