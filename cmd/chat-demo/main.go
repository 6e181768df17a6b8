// README: Interactive console client for the order-capture chat pipeline.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"bvetra/internal/ai"
	"bvetra/internal/modules/chat"
	"bvetra/internal/modules/dispatch"
	"bvetra/internal/modules/draft"
)

const sessionID = "demo"

func main() {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable not set")
	}

	ctx := context.Background()
	provider, err := ai.NewGeminiProvider(ctx, apiKey)
	if err != nil {
		log.Fatalf("assistant init: %v", err)
	}
	defer provider.Close()

	// Channels without credentials are skipped at dispatch time, so the demo
	// works with any subset of TELEGRAM_*/BITRIX_* set.
	coordinator := dispatch.NewCoordinator(nil, nil,
		dispatch.NewTelegram(os.Getenv("TELEGRAM_BOT_TOKEN"), os.Getenv("TELEGRAM_CHAT_ID")),
		dispatch.NewBitrix(os.Getenv("BITRIX_WEBHOOK_URL")),
	)
	svc := chat.NewService(chat.NewMemoryStore(), provider, coordinator, nil)

	fmt.Println("Напишите сообщение. Команды: /draft /confirm /submit /quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit":
			return
		case "/draft":
			d, err := svc.Draft(ctx, sessionID)
			if err != nil {
				fmt.Println("ошибка:", err)
				continue
			}
			printDraft(d)
		case "/confirm":
			d, err := svc.Confirm(ctx, sessionID)
			if err != nil {
				fmt.Println("ошибка:", err)
				continue
			}
			printDraft(d)
		case "/submit":
			sub, err := svc.Submit(ctx, sessionID)
			if err != nil {
				fmt.Println("ошибка:", err)
				continue
			}
			for _, r := range sub.Results {
				fmt.Printf("%s: %s %s\n", r.Channel, r.Status, r.Detail)
			}
		default:
			prev := 0
			reply, err := svc.SendMessage(ctx, sessionID, line, func(partial string) {
				fmt.Print(partial[prev:])
				prev = len(partial)
			})
			if err != nil {
				fmt.Println("ошибка:", err)
				continue
			}
			// degraded replies arrive whole rather than chunk by chunk
			if prev == 0 {
				fmt.Print(reply)
			}
			fmt.Println()
		}
	}
}

func printDraft(d draft.Draft) {
	fmt.Printf("состояние: %s\n", d.State)
	show := func(label, v string) {
		if v != "" {
			fmt.Printf("  %s: %s\n", label, v)
		}
	}
	show("имя", d.Name)
	show("телефон", d.Phone)
	show("подача", d.Pickup)
	show("назначение", d.Dropoff)
	show("время", d.Datetime)
	show("класс авто", d.CarClass.Display())
	show("примечание", d.Notes)
}
