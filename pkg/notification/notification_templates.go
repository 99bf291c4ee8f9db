package notification

import (
	"encoding/json"
	"fmt"
	"strings"

	"Food-Rescue-Hub/domain"
)

type Party struct {
	Name  string
	Email string
	Phone string
}

func nameOr(p Party, fallback string) string {
	if p.Name == "" {
		return fallback
	}
	return p.Name
}

// ClaimedMessage tells the donor someone claimed their donation.
func ClaimedMessage(donor, receiver Party, donation *domain.Donation) Message {
	items, _ := json.Marshal(donation.Items)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour donation has been claimed by %s.\nDonation ID: %s\nType: %s\nItems: %s\n\n"+
			"Please confirm the claim and choose pickup or delivery in your dashboard.",
		nameOr(donor, "there"), nameOr(receiver, "a receiver"), donation.ID, donation.Type, items,
	)
	return Message{To: donor.Email, Subject: "Your donation was claimed", Body: body}
}

// DecisionMessage tells the receiver whether the donor confirmed or rejected.
func DecisionMessage(receiver Party, donation *domain.Donation, decision domain.ConfirmationStatus) Message {
	var body string
	if decision == domain.ConfirmationConfirmed {
		method := ""
		if donation.FulfillmentMethod != nil {
			method = string(*donation.FulfillmentMethod)
		}
		body = fmt.Sprintf(
			"Hello %s,\n\nThe donor has confirmed your claim for donation %s.\n"+
				"Fulfillment: %s. The donor will reach out or expect your pickup.\n\nPickup Address: %s",
			nameOr(receiver, "there"), donation.ID, method, donation.PickupAddress,
		)
	} else {
		body = fmt.Sprintf(
			"Hello %s,\n\nThe donor has rejected your claim for donation %s. The donation is available again.",
			nameOr(receiver, "there"), donation.ID,
		)
	}
	return Message{
		To:      receiver.Email,
		Subject: "Donation " + strings.ToLower(string(decision)),
		Body:    body,
	}
}

// DeliveryRequestMessage asks the volunteer coordinator to arrange delivery.
func DeliveryRequestMessage(coordinator string, donor, receiver Party, donation *domain.Donation) Message {
	body := fmt.Sprintf(
		"Delivery needed for donation %s.\nDonor: %s\nReceiver: %s (%s)\nPickup Address: %s",
		donation.ID, nameOr(donor, "Donor"), receiver.Name, receiver.Email, donation.PickupAddress,
	)
	return Message{To: coordinator, Subject: "Delivery request: donation", Body: body}
}

// VolunteerMessage forwards a volunteer form to the admin, replying to the volunteer.
func VolunteerMessage(admin string, req domain.VolunteerRequest) Message {
	lines := []string{
		"A new volunteer expressed interest:",
		"",
		"Name: " + req.Name,
		"Email: " + req.Email,
	}
	if req.Phone != "" {
		lines = append(lines, "Phone: "+req.Phone)
	}
	lines = append(lines, "", "Message:", req.Message)

	return Message{
		To:      admin,
		Subject: "New Volunteer Submission: " + req.Name,
		Body:    strings.Join(lines, "\n"),
		ReplyTo: req.Email,
	}
}

// PasswordOTPMessage carries a one-time password reset code.
func PasswordOTPMessage(to, otp string) Message {
	return Message{
		To:      to,
		Subject: "Your password reset code",
		Body: fmt.Sprintf(
			"Your Food Rescue Hub password reset code is %s.\nIt expires in %d minutes.",
			otp, int(domain.OTPLifetime.Minutes()),
		),
	}
}

// VerificationMessage carries the e-mail verification link.
func VerificationMessage(to, name, link string) Message {
	return Message{
		To:      to,
		Subject: "Verify your Food Rescue Hub account",
		Body: fmt.Sprintf(
			"Hello %s,\n\nPlease verify your e-mail address by opening the link below:\n%s",
			nameOr(Party{Name: name}, "there"), link,
		),
	}
}
