// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package driver

import "testing"

func TestPlanShardsAlignedBoundaries(t *testing.T) {
	shards := planShards(999, 100)
	if len(shards) != 10 {
		t.Fatalf("planShards: got %d shards, want 10", len(shards))
	}
	for i, s := range shards {
		if s.index != i {
			t.Errorf("shard %d: index got %d, want %d", i, s.index, i)
		}
		wantStart := int32(i * 100)
		wantEnd := wantStart + 99
		if s.startHeight != wantStart || s.endHeight != wantEnd {
			t.Errorf("shard %d: got [%d,%d], want [%d,%d]", i, s.startHeight, s.endHeight, wantStart, wantEnd)
		}
	}
}

func TestPlanShardsTruncatedLastShard(t *testing.T) {
	shards := planShards(250, 100)
	if len(shards) != 3 {
		t.Fatalf("planShards: got %d shards, want 3", len(shards))
	}
	last := shards[len(shards)-1]
	if last.startHeight != 200 || last.endHeight != 250 {
		t.Errorf("last shard: got [%d,%d], want [200,250]", last.startHeight, last.endHeight)
	}
}

func TestPlanShardsNoSharding(t *testing.T) {
	shards := planShards(500, 0)
	if len(shards) != 1 {
		t.Fatalf("planShards: got %d shards, want 1 when shardHeights <= 0", len(shards))
	}
	if shards[0].startHeight != 0 || shards[0].endHeight != 500 {
		t.Errorf("single shard: got [%d,%d], want [0,500]", shards[0].startHeight, shards[0].endHeight)
	}
}

func TestPlanShardsCoverEveryHeightExactlyOnce(t *testing.T) {
	shards := planShards(733, 64)
	seen := make(map[int32]bool)
	for _, s := range shards {
		for h := s.startHeight; h <= s.endHeight; h++ {
			if seen[h] {
				t.Fatalf("height %d covered by more than one shard", h)
			}
			seen[h] = true
		}
	}
	for h := int32(0); h <= 733; h++ {
		if !seen[h] {
			t.Errorf("height %d not covered by any shard", h)
		}
	}
}
