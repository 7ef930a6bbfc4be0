package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/basilgregory/onam"
	"github.com/basilgregory/onam/config"
	"github.com/basilgregory/onam/internal/blog"
)

func main() {
	// --- Flags ---
	configPath := flag.String("config", "", "YAML config file, environment only when empty")
	truncate := flag.Bool("truncate", false, "Delete every post and exit")
	printConfig := flag.Bool("print-config", false, "Print the effective config and exit")
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	if *printConfig {
		out, err := settings.YAML()
		if err != nil {
			log.Fatal(err)
		}
		os.Stdout.Write(out)
		return
	}

	db, err := settings.Connect(os.Stderr, blog.Entities()...)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer db.Close()

	if *truncate {
		if err := db.Truncate("Post"); err != nil {
			log.Fatal(err)
		}
		fmt.Println("All posts removed")
		return
	}

	if err := run(db); err != nil {
		log.Fatal(err)
	}
}

func run(db *onam.DB) error {
	created, err := blog.RegisterUser(db)
	if err != nil {
		return err
	}
	if created {
		fmt.Println("Registered John Doe and four followers")
	}

	if _, err := onam.Get[*blog.Post](db, 1); errors.Is(err, onam.ErrRecordNotFound) {
		author, err := onam.Get[*blog.User](db, 1)
		if err != nil {
			return err
		}
		users, err := onam.All[*blog.User](db)
		if err != nil {
			return err
		}
		followers := make([]*blog.User, 0, len(users))
		for _, u := range users {
			if u.ID != author.ID {
				followers = append(followers, u)
			}
		}
		if _, err := blog.Publish(db, author, "Hello onam", "First post from the sample blog.",
			[]string{"comment 1", "comment 2"}, followers...); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	left, err := blog.RemoveTwoFollowers(db)
	if err != nil {
		return err
	}
	fmt.Printf("Post 1 has %d followers left\n", len(left))

	posts, err := db.FindAll("Post")
	if err != nil {
		return err
	}
	for _, post := range posts {
		if _, err := db.Resolve(post, "Comments", false); err != nil {
			return err
		}
		if _, err := db.Resolve(post, "Followers", false); err != nil {
			return err
		}
	}

	out, err := db.ToJSONArray(posts)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
