// Package carstore pins content locally: it builds CIDv1 UnixFS DAGs for
// files and directories and writes each root as a CAR archive.
package carstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ipfs/go-blockservice"
	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	badger "github.com/ipfs/go-ds-badger2"
	blockstore "github.com/ipfs/go-ipfs-blockstore"
	offline "github.com/ipfs/go-ipfs-exchange-offline"
	ipld "github.com/ipfs/go-ipld-format"
	"github.com/ipfs/go-merkledag"
	"github.com/ipfs/go-unixfs"
	"github.com/ipfs/go-unixfs/importer/helpers"
	unixfspb "github.com/ipfs/go-unixfs/pb"
	"github.com/ipld/go-car"
	mh "github.com/multiformats/go-multihash"
	"go.uber.org/zap"

	"github.com/metacore/nftup/internal/core/domain"
)

// DefaultChunkSize is the leaf size for file data
const DefaultChunkSize = 256 << 10

var cidBuilder = cid.V1Builder{Codec: cid.DagProtobuf, MhType: mh.SHA2_256}

// Options configures a Store
type Options struct {
	OutputDir string // Where <cid>.car files are written
	Datastore string // Badger datastore path, in-memory when empty
	ChunkSize int64
	MaxLinks  int // Links per intermediate file node
}

// Store is an offline pinner backed by a local blockstore
type Store struct {
	opts   Options
	dag    ipld.DAGService
	closer io.Closer
	log    *zap.Logger
}

// New opens the blockstore and prepares the output directory
func New(opts Options, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.OutputDir == "" {
		return nil, errors.New("car output directory not configured")
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.MaxLinks < 2 {
		opts.MaxLinks = helpers.DefaultLinksPerBlock
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, domain.IO("create car output directory", opts.OutputDir, err)
	}

	var (
		bs     blockstore.Blockstore
		closer io.Closer
	)
	if opts.Datastore != "" {
		if err := os.MkdirAll(opts.Datastore, 0755); err != nil {
			return nil, domain.IO("create datastore directory", opts.Datastore, err)
		}
		bopts := badger.DefaultOptions
		bopts.SyncWrites = true
		ds, err := badger.NewDatastore(opts.Datastore, &bopts)
		if err != nil {
			return nil, domain.IO("open badger datastore", opts.Datastore, err)
		}
		bs = blockstore.NewBlockstore(ds)
		closer = ds
	} else {
		bs = blockstore.NewBlockstore(dssync.MutexWrap(datastore.NewMapDatastore()))
	}

	bsvc := blockservice.New(bs, offline.Exchange(bs))
	return &Store{
		opts:   opts,
		dag:    merkledag.NewDAGService(bsvc),
		closer: closer,
		log:    log,
	}, nil
}

// Close releases the datastore
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Authenticate only checks that the output directory is usable; there is no
// remote side to authenticate against.
func (s *Store) Authenticate(ctx context.Context) error {
	info, err := os.Stat(s.opts.OutputDir)
	if err != nil {
		return domain.IO("check car output directory", s.opts.OutputDir, err)
	}
	if !info.IsDir() {
		return domain.Validation("check car output directory", s.opts.OutputDir, errors.New("not a directory"))
	}
	s.log.Info("offline pinner ready", zap.String("output_dir", s.opts.OutputDir))
	return nil
}

// CARPath returns where the archive for c is written
func (s *Store) CARPath(c string) string {
	return filepath.Join(s.opts.OutputDir, c+".car")
}

// PinFile adds a single file and writes its CAR archive
func (s *Store) PinFile(ctx context.Context, path string) (string, error) {
	nd, err := s.addFile(ctx, path)
	if err != nil {
		return "", err
	}
	return s.export(ctx, nd)
}

// PinDirectory adds dir recursively, skipping hidden entries, and writes a
// CAR archive rooted at the directory node.
func (s *Store) PinDirectory(ctx context.Context, dir string) (string, error) {
	nd, err := s.addDirectory(ctx, dir)
	if err != nil {
		return "", err
	}
	return s.export(ctx, nd)
}

func (s *Store) addDirectory(ctx context.Context, dir string) (ipld.Node, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.IO("read directory", dir, err)
	}

	data, err := unixfs.NewFSNode(unixfspb.Data_Directory).GetBytes()
	if err != nil {
		return nil, err
	}
	nd := merkledag.NodeWithData(data)
	if err := nd.SetCidBuilder(cidBuilder); err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		var child ipld.Node
		switch {
		case entry.IsDir():
			child, err = s.addDirectory(ctx, path)
		case entry.Type().IsRegular():
			child, err = s.addFile(ctx, path)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}

		size, err := child.Size()
		if err != nil {
			return nil, err
		}
		if err := nd.AddRawLink(entry.Name(), &ipld.Link{Cid: child.Cid(), Size: size}); err != nil {
			return nil, err
		}
	}

	if err := s.dag.Add(ctx, nd); err != nil {
		return nil, err
	}
	s.log.Debug("added directory", zap.String("path", dir), zap.String("cid", nd.Cid().String()))
	return nd, nil
}

// addFile chunks path into raw leaves and links them under file nodes
func (s *Store) addFile(ctx context.Context, path string) (ipld.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.IO("open file", path, err)
	}
	defer f.Close()

	var leaves []ipld.Node
	buf := make([]byte, s.opts.ChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := io.ReadFull(f, buf)
		if n > 0 {
			leaf := merkledag.NewRawNode(append([]byte(nil), buf[:n]...))
			if err := s.dag.Add(ctx, leaf); err != nil {
				return nil, err
			}
			leaves = append(leaves, leaf)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, domain.IO("read file", path, err)
		}
	}

	switch len(leaves) {
	case 0:
		return s.fileNode(ctx, nil)
	case 1:
		return leaves[0], nil
	}

	nodes := leaves
	for len(nodes) > 1 {
		var parents []ipld.Node
		for i := 0; i < len(nodes); i += s.opts.MaxLinks {
			end := min(i+s.opts.MaxLinks, len(nodes))
			parent, err := s.fileNode(ctx, nodes[i:end])
			if err != nil {
				return nil, err
			}
			parents = append(parents, parent)
		}
		nodes = parents
	}
	return nodes[0], nil
}

// fileNode builds a UnixFS file node over children
func (s *Store) fileNode(ctx context.Context, children []ipld.Node) (*merkledag.ProtoNode, error) {
	fsn := unixfs.NewFSNode(unixfspb.Data_File)
	links := make([]ipld.Link, 0, len(children))

	for _, child := range children {
		switch child := child.(type) {
		case *merkledag.RawNode:
			fsn.AddBlockSize(uint64(len(child.RawData())))
		case *merkledag.ProtoNode:
			un, err := unixfs.ExtractFSNode(child)
			if err != nil {
				return nil, err
			}
			fsn.AddBlockSize(un.FileSize())
		default:
			return nil, fmt.Errorf("unexpected node type %T", child)
		}

		size, err := child.Size()
		if err != nil {
			return nil, err
		}
		links = append(links, ipld.Link{Cid: child.Cid(), Size: size})
	}

	data, err := fsn.GetBytes()
	if err != nil {
		return nil, err
	}
	nd := merkledag.NodeWithData(data)
	if err := nd.SetCidBuilder(cidBuilder); err != nil {
		return nil, err
	}
	for i := range links {
		if err := nd.AddRawLink("", &links[i]); err != nil {
			return nil, err
		}
	}

	if err := s.dag.Add(ctx, nd); err != nil {
		return nil, err
	}
	return nd, nil
}

// export writes the CAR archive for root and returns its CID
func (s *Store) export(ctx context.Context, root ipld.Node) (string, error) {
	c := root.Cid()
	dest := s.CARPath(c.String())

	tmp, err := os.CreateTemp(s.opts.OutputDir, ".car-*")
	if err != nil {
		return "", domain.IO("create car file", dest, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := car.WriteCar(ctx, s.dag, []cid.Cid{c}, tmp); err != nil {
		tmp.Close()
		return "", domain.IO("write car file", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return "", domain.IO("close car file", dest, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return "", domain.IO("rename car file", dest, err)
	}

	s.log.Info("car archive written", zap.String("cid", c.String()), zap.String("path", dest))
	return c.String(), nil
}
