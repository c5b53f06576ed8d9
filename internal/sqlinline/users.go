package sqlinline

const QCreateUserWithProfile = `--sql 0972e3ed-12fc-40b9-9e69-5f5954eefbab
with new_user as (
    insert into users (id, email, password_hash, account_type, role, plan, locale, properties, created_at, updated_at)
    values (gen_random_uuid(), lower($1::text), $2::text, $3::text, 'user', 'free', $4::text, '{}'::jsonb, now(), now())
    returning id, email, password_hash, account_type, role, plan, locale, created_at, updated_at
),
new_profile as (
    insert into profiles (user_id, account_type, first_name, last_name, phone, country, details, profile_completed, created_at, updated_at)
    select id, account_type, $5::text, $6::text, $7::text, $8::text, '{}'::jsonb, false, now(), now()
    from new_user
    returning user_id
)
select u.id, u.email, u.password_hash, u.account_type, u.role, u.plan, u.locale, u.created_at, u.updated_at
from new_user u
join new_profile p on p.user_id = u.id;
`

const QSelectUserByID = `--sql 8cc6e71d-4ca7-4481-acfa-0df58dfadb95
select id, email, password_hash, account_type, role, plan, locale, created_at, updated_at
from users
where id = $1::uuid
limit 1;
`

const QSelectUserByEmail = `--sql ef44bc20-6d28-4646-aa33-6b412c24df17
select id, email, password_hash, account_type, role, plan, locale, created_at, updated_at
from users
where lower(email) = lower($1::text)
limit 1;
`

const QUpdateUserPassword = `--sql 06b56f96-62bd-48d7-90cf-e732287f04c6
update users
set password_hash = $2::text, updated_at = now()
where id = $1::uuid;
`

const QUpdateUserPlan = `--sql 9a577034-83b0-4227-8e06-bb1d83fcb67e
update users
set plan = $2::text, updated_at = now()
where id = $1::uuid;
`

const QSelectUserContact = `--sql 121b5ece-76a9-4758-b875-f51ccb3a2d41
select u.email, coalesce(p.phone, ''), coalesce(p.first_name, ''), coalesce(p.business_name, ''), u.locale
from users u
left join lateral (
    select phone, first_name, coalesce(details->>'business_name', '') as business_name
    from profiles
    where user_id = u.id
) p on true
where u.id = $1::uuid
limit 1;
`
