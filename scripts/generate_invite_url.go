package main

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
)

// botPermissions は、画像付きメンションへの返信に必要な権限です
const botPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("警告: .envファイルの読み込みに失敗しました: %v", err)
	}

	botToken := os.Getenv("DISCORD_BOT_TOKEN")
	if botToken == "" {
		log.Fatal("DISCORD_BOT_TOKEN が設定されていません")
	}

	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		log.Fatalf("Discordセッションの作成に失敗: %v", err)
	}
	defer session.Close()

	user, err := session.User("@me")
	if err != nil {
		log.Fatalf("Bot情報の取得に失敗: %v", err)
	}

	fmt.Printf("🤖 Bot情報:\n")
	fmt.Printf("   名前: %s\n", user.Username)
	fmt.Printf("   Client ID: %s\n", user.ID)
	fmt.Println()

	fmt.Printf("🔗 Bot招待URL:\n")
	fmt.Printf("   %s\n", inviteURL(user.ID))
	fmt.Println()

	fmt.Printf("📋 必要な権限 (合計: %d):\n", botPermissions)
	fmt.Printf("   - View Channels (%d)\n", discordgo.PermissionViewChannel)
	fmt.Printf("   - Send Messages (%d)\n", discordgo.PermissionSendMessages)
	fmt.Printf("   - Read Message History (%d)\n", discordgo.PermissionReadMessageHistory)
	fmt.Println()

	fmt.Printf("🎯 Botの使い方:\n")
	fmt.Printf("   1. /prompt image:<画像> で画像を送信\n")
	fmt.Printf("   2. または画像を添付して @%s をメンション\n", user.Username)
	fmt.Printf("   3. Türkçe と English の2つのプロンプトが返信されます\n")
}

func inviteURL(clientID string) string {
	query := url.Values{}
	query.Set("client_id", clientID)
	query.Set("permissions", strconv.FormatInt(botPermissions, 10))
	query.Set("scope", "bot applications.commands")
	return "https://discord.com/api/oauth2/authorize?" + query.Encode()
}
