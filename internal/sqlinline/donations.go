package sqlinline

const donationColumns = `id, user_id, donor_name, email, phone, amount_minor, currency, message, campaign, anonymous, status, created_at`

const QInsertDonation = `--sql d6740331-9a01-4dfb-be64-94a892ee16fc
insert into donations (id, user_id, donor_name, email, phone, amount_minor, currency, message, campaign, anonymous, status, created_at, updated_at)
values (gen_random_uuid(), nullif($1::text, '')::uuid, $2::text, $3::text, $4::text, $5::bigint, $6::text, $7::text, $8::text, $9::boolean, 'pending', now(), now())
returning ` + donationColumns + `;
`

const QSelectDonation = `--sql 88e59775-7c5d-4077-a43a-08db7b52ce2e
select ` + donationColumns + `
from donations
where id = $1::uuid
limit 1;
`

const QSetDonationStatus = `--sql 5f97410b-c2e3-4817-9432-47a3a25a7502
update donations
set status = $2::text, updated_at = now()
where id = $1::uuid;
`

const QListDonationTestimonials = `--sql a7347f47-3393-4655-b707-c90a125d4fd9
select ` + donationColumns + `
from donations
where status = 'paid' and message <> ''
order by created_at desc
limit $1::int;
`

const QDonationStats = `--sql b9026237-16b7-4749-aa38-ca8024702285
select
    coalesce(sum(amount_minor), 0)::bigint,
    count(distinct coalesce(user_id::text, nullif(email, ''), nullif(phone, ''), id::text))::bigint,
    count(*)::bigint
from donations
where status = 'paid';
`
