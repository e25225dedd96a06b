package scribe_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aretw0/scribe"
	"github.com/aretw0/scribe/pkg/adapters/memory"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

// scriptedGateway plays one user through the dialogue as soon as the session
// subscribes to its message. Each step waits for the previous acknowledgement.
type scriptedGateway struct {
	acked chan struct{}
}

type signalResponder struct{ acked chan struct{} }

func (r signalResponder) ShowForm(context.Context, domain.Form) error {
	r.acked <- struct{}{}
	return nil
}

func (r signalResponder) Defer(context.Context) error {
	r.acked <- struct{}{}
	return nil
}

func (r signalResponder) UpdateMessage(context.Context, domain.MessageView) error {
	r.acked <- struct{}{}
	return nil
}

func (g *scriptedGateway) Send(_ context.Context, channelID string, _ domain.MessageView) (domain.MessageRef, error) {
	return domain.MessageRef{ChannelID: channelID, MessageID: "bot-message"}, nil
}

func (g *scriptedGateway) Edit(context.Context, domain.MessageRef, domain.MessageView) error {
	return nil
}

func (g *scriptedGateway) Reply(context.Context, domain.MessageRef, string) error { return nil }

func (g *scriptedGateway) Subscribe(domain.MessageRef) ports.Subscription {
	sub := &stubSub{
		buttons: make(chan domain.ButtonActivated, 1),
		forms:   make(chan domain.FormSubmitted, 1),
	}
	ack := func() *domain.Ack { return domain.NewAck(signalResponder{acked: g.acked}) }
	go func() {
		sub.buttons <- domain.ButtonActivated{ControlID: domain.ControlSetTitle, Ack: ack()}
		<-g.acked
		sub.forms <- domain.FormSubmitted{FormID: domain.FormTitle, Values: []string{"Release notes"}, Ack: ack()}
		<-g.acked
		sub.buttons <- domain.ButtonActivated{ControlID: domain.ControlAddField, Ack: ack()}
		<-g.acked
		sub.forms <- domain.FormSubmitted{FormID: domain.FormField, Values: []string{"Version", "0.1.0"}, Ack: ack()}
		<-g.acked
		sub.buttons <- domain.ButtonActivated{ControlID: domain.ControlDone, Ack: ack()}
		<-g.acked
	}()
	return sub
}

// ExampleNew shows the engine driving a full dialogue against an in-process
// gateway and archiving the finished embed.
func ExampleNew() {
	store := memory.NewDocumentStore()
	eng := scribe.New(&scriptedGateway{acked: make(chan struct{})}, scribe.WithArchive(store))
	defer eng.Shutdown(context.Background())

	ctx := context.Background()
	err := eng.HandleTrigger(ctx, domain.Trigger{
		MessageID: "user-message",
		ChannelID: "general",
		AuthorID:  "someone",
		Content:   domain.CommandPhrase,
	})
	if err != nil {
		log.Fatal(err)
	}

	var ids []string
	for deadline := time.Now().Add(5 * time.Second); len(ids) == 0 && time.Now().Before(deadline); {
		time.Sleep(5 * time.Millisecond)
		if ids, err = store.List(ctx); err != nil {
			log.Fatal(err)
		}
	}
	if len(ids) == 0 {
		log.Fatal("no document archived")
	}

	rec, err := store.Load(ctx, ids[0])
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(rec.Embed.Title)
	for _, f := range rec.Embed.Fields {
		fmt.Printf("%s: %s\n", f.Name, f.Value)
	}
	// Output:
	// Release notes
	// Version: 0.1.0
}
