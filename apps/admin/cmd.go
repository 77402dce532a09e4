package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/catalog"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

const tokenEnvVar = "DARASA_ADMIN_TOKEN"

type commandLine struct {
	conf     *core.Config
	svc      catalog.ServiceInterface
	validate *validator.Validate
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  courses - list published courses")
	fmt.Println("  addcourse -name NAME -slug SLUG -category CATEGORY [-desc DESC] [-image URL] [-topics T1,T2] [-hours N] - publish a course")
	fmt.Println("  removecourse -id ID - remove a published course")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addCourseCmd := flag.NewFlagSet("addcourse", flag.ExitOnError)
	addName := addCourseCmd.String("name", "", "The course name.")
	addSlug := addCourseCmd.String("slug", "", "The URL-safe course slug.")
	addCategory := addCourseCmd.String("category", "", "The course category.")
	addDesc := addCourseCmd.String("desc", "", "The course description.")
	addImage := addCourseCmd.String("image", "", "The course image link.")
	addTopics := addCourseCmd.String("topics", "", "Comma-separated course topics.")
	addHours := addCourseCmd.Int("hours", 0, "The estimated completion time in hours.")

	removeCourseCmd := flag.NewFlagSet("removecourse", flag.ExitOnError)
	removeID := removeCourseCmd.Int("id", 0, "The course identifier.")

	switch args[1] {
	case "courses":
		return cli.listCourses()
	case "addcourse":
		if err := addCourseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addName == "" || *addSlug == "" || *addCategory == "" {
			addCourseCmd.Usage()
			return errHelp
		}
		var topics []string
		if *addTopics != "" {
			for _, topic := range strings.Split(*addTopics, ",") {
				topics = append(topics, strings.TrimSpace(topic))
			}
		}
		return cli.addCourse(catalog.NewCourse{
			Name:           *addName,
			Slug:           *addSlug,
			Description:    *addDesc,
			ImageLink:      *addImage,
			Topics:         topics,
			Category:       *addCategory,
			EstimatedHours: *addHours,
		})
	case "removecourse":
		if err := removeCourseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *removeID <= 0 {
			removeCourseCmd.Usage()
			return errHelp
		}
		return cli.removeCourse(*removeID)
	default:
		cli.printUsage()
		return errHelp
	}
}

// adminToken returns the credential presented to the course service; prompted
// when not set in the environment.
func adminToken() (string, error) {
	if token := os.Getenv(tokenEnvVar); token != "" {
		return token, nil
	}
	fmt.Print("Enter admin token:")
	token, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(token) == 0 {
		return "", errHelp
	}
	return string(token), nil
}
