package config

import (
	"context"
	"fmt"
	"os"

	"food-ordering-api/models"
	"food-ordering-api/store"

	"gopkg.in/yaml.v3"
)

// Fixtures describes demo data loaded into an empty database
type Fixtures struct {
	Users       []FixtureUser       `yaml:"users"`
	Restaurants []FixtureRestaurant `yaml:"restaurants"`
}

type FixtureUser struct {
	Email string          `yaml:"email"`
	Role  models.UserRole `yaml:"role"`
}

type FixtureRestaurant struct {
	Name   string        `yaml:"name"`
	Owner  string        `yaml:"owner"`
	Dishes []FixtureDish `yaml:"dishes"`
}

type FixtureDish struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Price       float64             `yaml:"price"`
	Options     []models.DishOption `yaml:"options"`
}

// LoadFixtures parses a fixtures file
func LoadFixtures(path string) (*Fixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var f Fixtures
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	return &f, nil
}

// Seed writes the fixtures in one transaction when no user exists yet. It
// returns the users it created; nil means the database was already populated.
func Seed(ctx context.Context, st *store.Store, f *Fixtures) ([]models.User, error) {
	n, err := st.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil, nil
	}

	var created []models.User
	err = st.Do(ctx, func(ctx context.Context) error {
		byEmail := make(map[string]models.User, len(f.Users))
		for _, fu := range f.Users {
			if !fu.Role.Valid() {
				return fmt.Errorf("fixture user %s: unknown role %q", fu.Email, fu.Role)
			}
			user := models.User{Email: fu.Email, Role: fu.Role}
			if err := st.CreateUser(ctx, &user); err != nil {
				return fmt.Errorf("create user %s: %w", fu.Email, err)
			}
			created = append(created, user)
			byEmail[user.Email] = user
		}

		for _, fr := range f.Restaurants {
			owner, ok := byEmail[fr.Owner]
			if !ok || owner.Role != models.RoleOwner {
				return fmt.Errorf("restaurant %s: owner %q is not a fixture owner", fr.Name, fr.Owner)
			}
			restaurant := models.Restaurant{Name: fr.Name, OwnerID: owner.ID}
			if err := st.CreateRestaurant(ctx, &restaurant); err != nil {
				return fmt.Errorf("create restaurant %s: %w", fr.Name, err)
			}
			for _, fd := range fr.Dishes {
				dish := models.Dish{
					RestaurantID: restaurant.ID,
					Name:         fd.Name,
					Description:  fd.Description,
					Price:        fd.Price,
					Options:      fd.Options,
				}
				if err := st.CreateDish(ctx, &dish); err != nil {
					return fmt.Errorf("create dish %s: %w", fd.Name, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
