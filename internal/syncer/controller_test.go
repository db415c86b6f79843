package syncer

import (
	"testing"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
)

func TestStartClaimsChannel(t *testing.T) {
	c := NewController()

	if !c.Start(internal.ChannelInquiry) {
		t.Fatal("first Start should succeed")
	}
	if c.Start(internal.ChannelInquiry) {
		t.Fatal("Start on an active channel must be refused")
	}
	if !c.Progress(internal.ChannelInquiry).IsActive {
		t.Fatal("channel should be active after Start")
	}
}

func TestChannelsAreIndependent(t *testing.T) {
	c := NewController()

	if !c.Start(internal.ChannelInquiry) {
		t.Fatal("inquiry Start should succeed")
	}
	if !c.Start(internal.ChannelPurchaseOrder) {
		t.Fatal("order channel must start regardless of inquiry state")
	}

	c.Complete(internal.ChannelInquiry, 3, 3, 0)
	if c.Progress(internal.ChannelInquiry).IsActive {
		t.Fatal("inquiry should be idle after Complete")
	}
	if !c.Progress(internal.ChannelPurchaseOrder).IsActive {
		t.Fatal("order channel must stay active")
	}
}

func TestProgressLifecycle(t *testing.T) {
	c := NewController()
	c.Start(internal.ChannelInquiry)

	c.ReportProgress(internal.ChannelInquiry, 2, 5, 1, 1)
	got := c.Progress(internal.ChannelInquiry)
	if got.Current != 2 || got.Total != 5 || got.Success != 1 || got.Failed != 1 || !got.IsActive {
		t.Fatalf("mid-run progress = %+v", got)
	}
	if got.Label() != "2/5" {
		t.Fatalf("Label() = %q, want 2/5", got.Label())
	}

	c.Complete(internal.ChannelInquiry, 5, 4, 1)
	got = c.Progress(internal.ChannelInquiry)
	if got.IsActive {
		t.Fatal("channel should be idle after Complete")
	}
	if got.Success != 4 || got.Failed != 1 {
		t.Fatalf("final counts = %+v, want success=4 failed=1", got)
	}

	if !c.Start(internal.ChannelInquiry) {
		t.Fatal("channel must be claimable again after completion")
	}
}

func TestErrorReleasesChannel(t *testing.T) {
	c := NewController()
	c.Start(internal.ChannelInquiry)
	c.ReportProgress(internal.ChannelInquiry, 1, 4, 1, 0)

	c.Error(internal.ChannelInquiry)
	got := c.Progress(internal.ChannelInquiry)
	if got.IsActive {
		t.Fatal("channel should be idle after Error")
	}
	if !c.Start(internal.ChannelInquiry) {
		t.Fatal("channel must be claimable again after an error")
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	c := NewController()

	var events []internal.SyncProgress
	unsubscribe := c.Subscribe(func(channel internal.SyncChannel, p internal.SyncProgress) {
		if channel == internal.ChannelInquiry {
			events = append(events, p)
		}
	})

	c.Start(internal.ChannelInquiry)
	c.ReportProgress(internal.ChannelInquiry, 1, 2, 1, 0)
	c.Complete(internal.ChannelInquiry, 2, 2, 0)

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if !events[0].IsActive || events[0].Total != 0 {
		t.Fatalf("start event = %+v", events[0])
	}
	if events[1].Current != 1 || events[1].Total != 2 {
		t.Fatalf("progress event = %+v", events[1])
	}
	if events[2].IsActive {
		t.Fatalf("complete event = %+v, want idle", events[2])
	}

	unsubscribe()
	c.Start(internal.ChannelInquiry)
	if len(events) != 3 {
		t.Fatal("unsubscribed callback must not fire")
	}
}

func TestSnapshotCoversBothChannels(t *testing.T) {
	c := NewController()
	c.Start(internal.ChannelPurchaseOrder)

	snap := c.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot has %d channels, want 2", len(snap))
	}
	if snap[internal.ChannelInquiry].IsActive {
		t.Fatal("inquiry should be idle")
	}
	if !snap[internal.ChannelPurchaseOrder].IsActive {
		t.Fatal("order channel should be active")
	}
}
