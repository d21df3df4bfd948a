package index

// Group is one cluster of paths that share a volume file id, reported
// by the hard-link group walker in list-only mode.
type Group struct {
	// Paths are the chain members, in BST traversal order.
	Paths []string
	// LinkCount is the observed link_count of the chain head — the
	// total N of "K of N hardlinked instances".
	LinkCount uint32
}

// WalkGroups traverses every size bucket and reports each contiguous
// run of records sharing an equal prefix signature (the chain built by
// InsertOrCompare's tie-break along Larger) as a Group. Buckets are
// visited in an unspecified order; within a bucket, traversal is
// in-order (Smaller, node, Larger), matching the recursive walk a
// systems-language implementation would use.
func WalkGroups(idx *SizeIndex) []Group {
	var groups []Group
	for _, root := range idx.buckets {
		walkNode(root, &groups)
	}
	return groups
}

// WalkAll returns every record in the index, across all size buckets,
// in-order within each bucket. Used by the "-sigs" printer, which
// needs every accepted record regardless of duplicate status.
func WalkAll(idx *SizeIndex) []*Record {
	var all []*Record
	for _, root := range idx.buckets {
		collect(root, &all)
	}
	return all
}

func collect(item *Record, all *[]*Record) {
	if item == nil {
		return
	}
	collect(item.Smaller, all)
	*all = append(*all, item)
	collect(item.Larger, all)
}

func walkNode(item *Record, groups *[]Group) {
	if item == nil {
		return
	}
	walkNode(item.Smaller, groups)

	chain := []*Record{item}
	node := item
	for node.Larger != nil && node.Larger.PrefixSig.Equal(item.PrefixSig) {
		node = node.Larger
		chain = append(chain, node)
	}

	if len(chain) > 1 {
		paths := make([]string, len(chain))
		for i, r := range chain {
			paths[i] = r.Path
		}
		*groups = append(*groups, Group{Paths: paths, LinkCount: item.LinkCount})
	}

	// node.Larger, if non-nil, holds a strictly larger signature — the
	// subtree rooted there is unrelated to this chain.
	if node.Larger != nil {
		walkNode(node.Larger, groups)
	}
}
